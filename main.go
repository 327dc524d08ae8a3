// Command ti99tape converts TI-99/4A cassette tape images between raw
// program bytes, WAV audio captures, and TZX emulator containers.
package main

import "ti99tape/cmd"

func main() {
	cmd.Execute()
}
