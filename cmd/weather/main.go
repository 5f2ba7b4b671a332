// Command weather is a city-weather agent with per-thread memory.
//
//	weather ask "what is the weather in Taipei?"
//	weather ask --thread 42 "and in Phoenix?"
//	weather history --thread 42
//	weather forget --thread 42
package main

func main() {
	Execute()
}
