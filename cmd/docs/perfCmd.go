package docs

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/dDoc/cmd/util"
	"github.com/ValentinKolb/dDoc/lib/docstore"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dDoc servers",
		Long:    "",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfKeyPrefix        = "__test"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfOpsPerThread     = 1000
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. create,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("Number of operations per thread for each benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the create-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfOpsPerThread = viper.GetInt("ops")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for dDoc servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Threads: %d, Ops per thread: %d\n", perfNumThreads, perfOpsPerThread)
	fmt.Println()

	fmt.Println("starting tests...")

	ctx := context.Background()

	// Create results map
	results := make(map[string]metrics.Timer)

	// The create benchmark measures inserting fresh documents
	results["create"] = runBench("create", func(timer metrics.Timer, thread int) {
		getKey, iter := getKeys(fmt.Sprintf("create-%d", thread))
		defer cleanupKeys(ctx, iter)

		for i := 0; i < perfOpsPerThread; i++ {
			key := getKey(i)
			start := time.Now()
			_, err := rpcDocs.CreateDoc(ctx, docstore.Key(key), []byte(`{"v":1}`))
			timer.UpdateSince(start)
			if err != nil && !docstore.IsExists(err) {
				log.Printf("(create) - error creating document: %v\n", err)
			}
		}
	})

	// The create-large benchmark measures inserting large payloads
	results["create-large"] = runBench("create-large", func(timer metrics.Timer, thread int) {
		largeValue := make([]byte, perfLargeValueSizeKB*1024)
		getKey, iter := getKeys(fmt.Sprintf("create-large-%d", thread))
		defer cleanupKeys(ctx, iter)

		for i := 0; i < perfOpsPerThread; i++ {
			key := getKey(i)
			start := time.Now()
			_, err := rpcDocs.CreateDoc(ctx, docstore.Key(key), largeValue)
			timer.UpdateSince(start)
			if err != nil && !docstore.IsExists(err) {
				log.Printf("(create-large) - error creating document: %v\n", err)
			}
		}
	})

	// The get benchmark measures point reads of existing documents
	results["get"] = runBench("get", func(timer metrics.Timer, thread int) {
		getKey, iter := getKeys(fmt.Sprintf("get-%d", thread))
		seedKeys(ctx, iter)
		defer cleanupKeys(ctx, iter)

		for i := 0; i < perfOpsPerThread; i++ {
			key := getKey(i)
			start := time.Now()
			_, err := rpcDocs.GetDoc(ctx, docstore.Key(key))
			timer.UpdateSince(start)
			if err != nil {
				log.Printf("(get) - error getting document: %v\n", err)
			}
		}
	})

	// The update benchmark measures version-checked replacements
	results["update"] = runBench("update", func(timer metrics.Timer, thread int) {
		getKey, iter := getKeys(fmt.Sprintf("update-%d", thread))
		seedKeys(ctx, iter)
		defer cleanupKeys(ctx, iter)

		// Track the latest version per key so every update passes the check
		versions := make(map[string]docstore.CommitVersion, perfKeySpread)
		iter(func(k string) {
			if doc, err := rpcDocs.GetDoc(ctx, docstore.Key(k)); err == nil {
				versions[k] = doc.Version
			}
		})

		for i := 0; i < perfOpsPerThread; i++ {
			key := getKey(i)
			start := time.Now()
			doc, err := rpcDocs.UpdateDoc(ctx, docstore.Key(key), []byte(`{"v":2}`), versions[key])
			timer.UpdateSince(start)
			if err != nil {
				log.Printf("(update) - error updating document: %v\n", err)
				continue
			}
			versions[key] = doc.Version
		}
	})

	// The counter-incr benchmark measures atomic counter increments
	results["counter-incr"] = runBench("counter-incr", func(timer metrics.Timer, thread int) {
		key := fmt.Sprintf("%s-counter-%d", perfKeyPrefix, thread)

		for i := 0; i < perfOpsPerThread; i++ {
			start := time.Now()
			_, err := rpcDocs.IncrementCounter(ctx, docstore.Key(key), 1)
			timer.UpdateSince(start)
			if err != nil {
				log.Printf("(counter-incr) - error incrementing counter: %v\n", err)
			}
		}
	})

	// The scan benchmark measures range scans over the seeded keys
	results["scan"] = runBench("scan", func(timer metrics.Timer, thread int) {
		getKey, iter := getKeys(fmt.Sprintf("scan-%d", thread))
		seedKeys(ctx, iter)
		defer cleanupKeys(ctx, iter)

		req := docstore.ScanRequest{
			Cmp:         docstore.CmpGTE,
			Pivot:       docstore.Key(getKey(0)),
			Limit:       perfKeySpread,
			Consistency: docstore.AllowStale,
		}

		for i := 0; i < perfOpsPerThread; i++ {
			start := time.Now()
			_, err := rpcDocs.ScanKeys(ctx, req)
			timer.UpdateSince(start)
			if err != nil {
				log.Printf("(scan) - error scanning keys: %v\n", err)
			}
		}
	})

	// The remove benchmark measures deletes of existing documents
	results["remove"] = runBench("remove", func(timer metrics.Timer, thread int) {
		_, iter := getKeys(fmt.Sprintf("remove-%d", thread))
		seedKeys(ctx, iter)

		iter(func(k string) {
			start := time.Now()
			err := rpcDocs.RemoveKey(ctx, docstore.Key(k))
			timer.UpdateSince(start)
			if err != nil {
				log.Printf("(remove) - error removing document: %v\n", err)
			}
		})
	})

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// runBench runs one benchmark with perfNumThreads concurrent workers and
// prints its latency statistics
func runBench(name string, fn func(timer metrics.Timer, thread int)) metrics.Timer {
	timer := metrics.NewTimer()

	if shouldSkip(name) {
		printResult(name, timer)
		return timer
	}

	var wg sync.WaitGroup
	for thread := 0; thread < perfNumThreads; thread++ {
		wg.Add(1)
		go func(thread int) {
			defer wg.Done()
			fn(timer, thread)
		}(thread)
	}
	wg.Wait()

	printResult(name, timer)
	return timer
}

// creates an array of test keys and functions to work with them
func getKeys(prefix string) (func(int) string, func(func(string))) {
	keys := make([]string, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		keys[i] = fmt.Sprintf("%s-%s-%d", perfKeyPrefix, prefix, i)
	}

	// Function to get a key by index (with wraparound)
	getKey := func(i int) string {
		return keys[i%perfKeySpread]
	}

	// Function to iterate over all keys and apply a function to each
	iterateKeys := func(fn func(string)) {
		for _, key := range keys {
			fn(key)
		}
	}

	return getKey, iterateKeys
}

// seedKeys creates a document for every test key
func seedKeys(ctx context.Context, iter func(func(string))) {
	iter(func(k string) {
		if _, err := rpcDocs.CreateDoc(ctx, docstore.Key(k), []byte(`{"v":1}`)); err != nil && !docstore.IsExists(err) {
			log.Printf("error seeding key %s: %v\n", k, err)
		}
	})
}

// cleanupKeys removes every test key
func cleanupKeys(ctx context.Context, iter func(func(string))) {
	iter(func(k string) {
		if err := rpcDocs.RemoveKey(ctx, docstore.Key(k)); err != nil && !docstore.IsNotFound(err) {
			log.Printf("error cleaning up key %s: %v\n", k, err)
		}
	})
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, timer metrics.Timer) {
	if timer.Count() == 0 {
		fmt.Printf("%-16sskipped\n", test)
		return
	}

	mean := time.Duration(int64(timer.Mean()))
	p50 := time.Duration(int64(timer.Percentile(0.5)))
	p99 := time.Duration(int64(timer.Percentile(0.99)))

	// Print the formatted result
	fmt.Printf("%-16s%d ops\tmean %s\tp50 %s\tp99 %s\t%.0f ops/sec\n",
		test, timer.Count(), mean, p50, p99, timer.RateMean())
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]metrics.Timer) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	config := util.GetClientConfig()

	// Write header
	header := []string{
		"Test", "Ops", "MeanNs", "P50Ns", "P99Ns", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"BucketID", "Serializer", "Transport",
		"Threads", "OpsPerThread", "LargeValueSizeKB", "KeysCount",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, timer := range results {
		row := []string{
			test,
			strconv.FormatInt(timer.Count(), 10),
			fmt.Sprintf("%.0f", timer.Mean()),
			fmt.Sprintf("%.0f", timer.Percentile(0.5)),
			fmt.Sprintf("%.0f", timer.Percentile(0.99)),
			fmt.Sprintf("%.0f", timer.RateMean()),
			strconv.FormatBool(timer.Count() == 0),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			strconv.FormatUint(util.GetBucketID(), 10),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfOpsPerThread),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
