package docs

import (
	"context"
	"fmt"
	"strconv"

	"github.com/ValentinKolb/dDoc/lib/docstore"
	"github.com/ValentinKolb/dDoc/lib/doctable"
	"github.com/spf13/cobra"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the document stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			doc, err := rpcDocs.GetDoc(context.Background(), docstore.Key(key))
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, version=%d, value=%s\n", doc.Key, doc.Version, doc.Value)
			return nil
		},
	}
	createCmd = &cobra.Command{
		Use:   "create [key] [value]",
		Short: "Creates a new document under a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			doc, err := rpcDocs.CreateDoc(context.Background(), docstore.Key(key), []byte(value))
			if err != nil {
				return err
			}
			fmt.Printf("created key=%s, version=%d\n", doc.Key, doc.Version)
			return nil
		},
	}
	updateCmd = &cobra.Command{
		Use:   "update [key] [value] [expectedVersion]",
		Short: "Replaces a document if its commit version matches",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := args[1]
			expected, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("expectedVersion must be a number: %w", err)
			}
			doc, err := rpcDocs.UpdateDoc(
				context.Background(),
				docstore.Key(key),
				[]byte(value),
				docstore.CommitVersion(expected),
			)
			if err != nil {
				return err
			}
			fmt.Printf("updated key=%s, version=%d\n", doc.Key, doc.Version)
			return nil
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [key]",
		Short: "Removes the document stored under a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			if err := rpcDocs.RemoveKey(context.Background(), docstore.Key(key)); err != nil {
				return err
			}
			fmt.Println("removed successfully")
			return nil
		},
	}
	counterGetCmd = &cobra.Command{
		Use:   "counter-get [key]",
		Short: "Reads the counter stored under a key (absent counters read as zero)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			total, err := rpcDocs.GetCounter(context.Background(), docstore.Key(key))
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, total=%d\n", key, total)
			return nil
		},
	}
	counterIncrCmd = &cobra.Command{
		Use:   "counter-incr [key] [delta]",
		Short: "Atomically adds a delta to a counter, creating it on first use",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			delta, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("delta must be a number: %w", err)
			}
			total, err := rpcDocs.IncrementCounter(context.Background(), docstore.Key(key), delta)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, total=%d\n", key, total)
			return nil
		},
	}
	scanCmd = &cobra.Command{
		Use:   "scan [pivot]",
		Short: "Scans keys matching a comparison against the pivot key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pivot := args[0]

			cmpFlag, _ := cmd.Flags().GetString("cmp")
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")
			stale, _ := cmd.Flags().GetBool("stale")

			var cmp docstore.Comparison
			switch cmpFlag {
			case "eq":
				cmp = docstore.CmpEQ
			case "gt":
				cmp = docstore.CmpGT
			case "lt":
				cmp = docstore.CmpLT
			case "gte":
				cmp = docstore.CmpGTE
			case "lte":
				cmp = docstore.CmpLTE
			default:
				return fmt.Errorf("invalid comparison %s (expected one of: eq, gt, lt, gte, lte)", cmpFlag)
			}

			consistency := docstore.EnsureConsistency
			if stale {
				consistency = docstore.AllowStale
			}

			result, err := rpcDocs.ScanKeys(context.Background(), docstore.ScanRequest{
				Cmp:         cmp,
				Pivot:       docstore.Key(pivot),
				Limit:       limit,
				Offset:      offset,
				Consistency: consistency,
			})
			if err != nil {
				return err
			}

			fmt.Printf("%d documents\n", len(result))
			for _, doc := range result {
				fmt.Printf("key=%s, version=%d, value=%s\n", doc.Key, doc.Version, doc.Value)
			}
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Shows metadata about the bucket's table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			introspector, ok := rpcDocs.(interface {
				TableInfo(ctx context.Context) (doctable.TableInfo, error)
			})
			if !ok {
				return fmt.Errorf("client does not support table info")
			}
			info, err := introspector.TableInfo(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("type=%s, documents=%d, counters=%d, est_size=%d bytes\n",
				info.TableType, info.DocCount, info.CounterCount, info.EstSizeBytes)
			return nil
		},
	}
)

func init() {
	scanCmd.Flags().String("cmp", "gte", "Comparison operator (eq, gt, lt, gte, lte)")
	scanCmd.Flags().Int("limit", 0, "Maximum number of documents to return (0 for unlimited)")
	scanCmd.Flags().Int("offset", 0, "Number of matching documents to skip")
	scanCmd.Flags().Bool("stale", false, "Allow the scan to read from a possibly stale index")
}
