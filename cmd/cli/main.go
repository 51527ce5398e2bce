package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/tunetrace/tunetrace/pkg/logger"
)

// Global flags shared by every command.
var (
	dbPath   string
	rootDir  string
	toolPath string
)

func init() {
	_ = godotenv.Load()
	flag.StringVar(&dbPath, "db", getEnvOrDefault("TUNETRACE_DB_PATH", "tunetrace.sqlite3"), "Path to the SQLite database file")
	flag.StringVar(&rootDir, "root", getEnvOrDefault("TUNETRACE_ROOT_DIR", "/tmp"), "Scratch directory root for scan files")
	flag.StringVar(&toolPath, "tool", getEnvOrDefault("TUNETRACE_TOOL", ""), "Path to the external fingerprint binary")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()
	os.Args = append([]string{os.Args[0]}, flag.Args()...)
	log := logger.GetLogger()

	printBanner()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Debugf("executing command: %s", command)

	switch command {
	case "scan":
		handleScan()
	case "fetch":
		handleFetch()
	case "list":
		handleList()
	case "show":
		handleShow()
	case "delete":
		handleDelete()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 _____               _____
|_   _|   _ _ __   __|_   _| __ __ _  ___ ___
  | || | | | '_ \ / _ \| || '__/ _' |/ __/ _ \
  | || |_| | | | |  __/| || | | (_| | (_|  __/
  |_| \__,_|_| |_|\___||_||_|  \__,_|\___\___|

        Trigger-Sound Detection Tool
`
	fmt.Println(banner)
}

func printUsage() {
	fmt.Println("usage: tunetrace <command>")
	fmt.Println()
	fmt.Println("commands:")
	fmt.Println("  scan  <audio.wav> -fp <trigger.fp> [-offset ms] [-duration s]")
	fmt.Println("        [-fprate hz] [-workers n] [-debug] [-save] [-json]")
	fmt.Println("                                  locate trigger sounds in a WAV file")
	fmt.Println("  fetch <url> [-dir out]          download a remote audio source as WAV")
	fmt.Println("  list                            list stored scans")
	fmt.Println("  show <scan-id>                  show a stored scan and its tags")
	fmt.Println("  delete <scan-id>                delete a stored scan")
}
