package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "validate":
		if err := validate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "prior":
		if err := prior(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "calibrate":
		if err := calibrate(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "runs":
		if err := runs(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("abseir %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`abseir - spatial SEIR calibration via Approximate Bayesian Computation

Usage: abseir <command> [options]

Commands:
  validate    Validate a model-definition document and report the layout
  prior       Draw particles from the joint prior
  calibrate   Run an ABC calibration against the observed data
  runs        List persisted calibration runs
  version     Print version
  help        Print this help

Run 'abseir <command> -h' for command options.`)
}
