package main

import (
	"fmt"
	"log"
	"time"

	"hali/pkg/client"
	"hali/pkg/common"
)

func main() {
	fmt.Println("Connecting to HaliDB...")
	cli, err := client.Dial("localhost:9090")
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer cli.Close()

	key := common.KeyType(10086)
	value := common.ValueType(424242)

	fmt.Printf("Inserting: Key=%d, Val=%d\n", key, value)
	start := time.Now()
	if err := cli.Insert(key, value); err != nil {
		log.Fatalf("Insert failed: %v", err)
	}
	fmt.Printf("Insert done in %v\n", time.Since(start))

	fmt.Printf("Reading Key=%d...\n", key)
	start = time.Now()
	val, err := cli.Get(key)
	if err != nil {
		log.Fatalf("Get failed: %v", err)
	}
	fmt.Printf("Got %d in %v\n", uint64(val), time.Since(start))

	stats, err := cli.Stats()
	if err != nil {
		log.Fatalf("Stats failed: %v", err)
	}
	fmt.Printf("Index: %v, total keys: %v\n", stats["index"], stats["total_keys"])
}
