package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"hali/pkg/client"
	"hali/pkg/common"
)

const Prompt = "hali> "

func main() {
	serverAddr := flag.String("addr", "localhost:9090", "HaliDB TCP Server Address")
	flag.Parse()

	fmt.Printf("HaliDB CLI (Target: %s)\n", *serverAddr)
	fmt.Println("Connecting...")

	cli, err := client.Dial(*serverAddr)
	if err != nil {
		fmt.Printf("Connection failed: %v\n", err)
		fmt.Println("Tip: Ensure the server is running (e.g. go run cmd/server/main.go).")
		return
	}
	defer cli.Close()
	fmt.Println("Connected! Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(Prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])

		switch cmd {
		case "insert", "put", "set":
			handleInsert(cli, parts)
		case "get":
			handleGet(cli, parts)
		case "erase", "del", "rm":
			handleErase(cli, parts)
		case "stats":
			handleStats(cli)
		case "help":
			printHelp()
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Printf("Unknown command: '%s'. Type 'help'.\n", cmd)
		}
	}
}

func handleInsert(cli *client.Client, parts []string) {
	if len(parts) < 3 {
		fmt.Println("Usage: insert <key_int> <value_uint>")
		return
	}

	key, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		fmt.Println("Error: Key must be an integer (e.g., 1001)")
		return
	}
	value, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		fmt.Println("Error: Value must be an unsigned integer")
		return
	}

	start := time.Now()
	err = cli.Insert(common.KeyType(key), common.ValueType(value))
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Printf("OK (%v)\n", duration)
	}
}

func handleGet(cli *client.Client, parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: get <key_int>")
		return
	}

	key, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		fmt.Println("Error: Key must be an integer")
		return
	}

	start := time.Now()
	val, err := cli.Get(common.KeyType(key))
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Printf("%d (%v)\n", uint64(val), duration)
	}
}

func handleErase(cli *client.Client, parts []string) {
	if len(parts) < 2 {
		fmt.Println("Usage: erase <key_int>")
		return
	}

	key, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		fmt.Println("Error: Key must be an integer")
		return
	}

	start := time.Now()
	err = cli.Erase(common.KeyType(key))
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v\n", err)
	} else {
		fmt.Printf("Erased (%v)\n", duration)
	}
}

func handleStats(cli *client.Client) {
	stats, err := cli.Stats()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	for k, v := range stats {
		fmt.Printf("  %-15s %v\n", k, v)
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  insert <key> <value>   Insert a key/value pair (fails if key exists)")
	fmt.Println("  get <key>              Look up a key")
	fmt.Println("  erase <key>            Remove a post-build key")
	fmt.Println("  stats                  Show index statistics")
	fmt.Println("  exit                   Quit")
}
