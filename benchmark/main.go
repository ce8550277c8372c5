// Package main provides a benchmark tool measuring submission and
// processing throughput against the core: submit N tasks concurrently,
// then wait for a worker pool to drain and publish every result.
//
// Usage:
//
//	go run benchmark/main.go -tasks 100000
package main

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/guido-cesarano/distributedq/pkg/backend/memory"
	"github.com/guido-cesarano/distributedq/pkg/retrieve"
	"github.com/guido-cesarano/distributedq/pkg/submit"
	"github.com/guido-cesarano/distributedq/pkg/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func main() {
	numTasks := flag.Int("tasks", 100000, "Number of tasks to submit")
	numSubmitters := flag.Int("submitters", 10, "Number of concurrent submitters")
	numWorkers := flag.Int("workers", 10, "Number of concurrent executors")
	flag.Parse()

	queue := memory.NewQueue()
	store := memory.NewStore(time.Hour, zerolog.Nop())
	defer store.Close()

	submitter := submit.New(queue)
	retriever := retrieve.New(store)

	registry := worker.NewRegistry()
	registry.Register("benchmark", func(context.Context, map[string]any) (any, error) {
		return "ok", nil
	})
	metrics := worker.NewMetrics(prometheus.NewRegistry())
	pool := worker.NewPool(worker.Config{NumWorkers: *numWorkers}, queue, store, registry, metrics, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	fmt.Printf("distributedq benchmark\n")
	fmt.Printf("=======================\n")
	fmt.Printf("Tasks to submit: %d\n", *numTasks)
	fmt.Printf("Concurrent submitters: %d\n\n", *numSubmitters)

	fmt.Printf("Starting submission phase...\n")
	startSubmit := time.Now()

	var wg sync.WaitGroup
	var submitted atomic.Int64
	ids := make([]string, *numTasks)
	tasksPerSubmitter := *numTasks / *numSubmitters

	for i := 0; i < *numSubmitters; i++ {
		wg.Add(1)
		go func(submitterID int) {
			defer wg.Done()
			for j := 0; j < tasksPerSubmitter; j++ {
				idx := submitterID*tasksPerSubmitter + j
				id, err := submitter.Submit(ctx, "benchmark", map[string]any{"submitter": submitterID, "task": j})
				if err != nil {
					fmt.Printf("Error submitting: %v\n", err)
					return
				}
				ids[idx] = id
				submitted.Add(1)
			}
		}(i)
	}

	wg.Wait()
	submitTime := time.Since(startSubmit)

	fmt.Printf("Submitted %d tasks in %s\n", submitted.Load(), submitTime)
	fmt.Printf("  Throughput: %.2f tasks/sec\n\n", float64(submitted.Load())/submitTime.Seconds())

	fmt.Printf("Waiting for all results to be published...\n")
	startProcess := time.Now()

	for {
		remaining := int64(0)
		for _, id := range ids {
			if id == "" {
				continue
			}
			if exists, _ := retriever.Exists(ctx, id); !exists {
				remaining++
			}
		}
		if remaining == 0 {
			break
		}
		time.Sleep(2 * time.Second)
		fmt.Printf("  Remaining: %d tasks\n", remaining)
	}

	processTime := time.Since(startProcess)

	fmt.Printf("\nAll tasks processed in %s\n", processTime)
	fmt.Printf("  Throughput: %.2f tasks/sec\n", float64(*numTasks)/processTime.Seconds())

	total := submitTime + processTime
	fmt.Printf("\nTotal time: %s\n", total)
	fmt.Printf("Overall throughput: %.2f tasks/sec\n", float64(*numTasks)/total.Seconds())
}
