// Command proxyharvest runs the proxy-node aggregation and curation
// pipeline: collect candidate subscriptions and raw node URIs, validate
// and dedupe them, score reachability and quality, and emit a curated
// high-quality node list.
package main

import (
	"github.com/alecthomas/kong"

	"github.com/nullbyte-labs/proxyharvest/internal/cli"
)

var version = "dev"

func main() {
	var c cli.CLI

	ctx := kong.Parse(&c,
		kong.Name("proxyharvest"),
		kong.Description("Proxy-node aggregation, validation and curation pipeline."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	ctx.FatalIfErrorf(ctx.Run(&c, version))
}
