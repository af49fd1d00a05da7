package docs

import (
	"github.com/ValentinKolb/dDoc/cmd/util"
	"github.com/ValentinKolb/dDoc/lib/docstore"
	"github.com/ValentinKolb/dDoc/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcDocs docstore.IInterpreter

	// DocCommands represents the document command group
	DocCommands = &cobra.Command{
		Use:               "docs",
		Short:             "Perform document store operations",
		PersistentPreRunE: setupDocClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common RPC flags to the docs command
	util.SetupRPCClientFlags(DocCommands)

	// Set default bucket ID for document operations
	DocCommands.PersistentFlags().Int("bucket", 100, util.WrapString("ID of the bucket to connect to"))

	// Add subcommands
	DocCommands.AddCommand(getCmd)
	DocCommands.AddCommand(createCmd)
	DocCommands.AddCommand(updateCmd)
	DocCommands.AddCommand(removeCmd)
	DocCommands.AddCommand(counterGetCmd)
	DocCommands.AddCommand(counterIncrCmd)
	DocCommands.AddCommand(scanCmd)
	DocCommands.AddCommand(infoCmd)
	DocCommands.AddCommand(perfTestCmd)
}

// setupDocClient initializes the RPC document store client
func setupDocClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Get client configuration components
	config := util.GetClientConfig()
	bucketId := util.GetBucketID()

	// Get serializer and transport
	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	// Create the document store client
	rpcDocs, err = client.NewRPCDocStore(
		bucketId,
		*config,
		t,
		s,
	)

	return err
}
