package main

import "github.com/PabloViniegra/how-are-u/cmd"

func main() {
	cmd.Execute()
}
