package library

import "os"

// Touch creates the file if it does not exist.
func Touch(path string) {
	f, err := os.OpenFile(path, os.O_CREATE, 0644)
	if err != nil {
		LogCLI(err.Error(), 2)
		return
	}
	f.Close()
}
