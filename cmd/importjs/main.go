package main

import (
	"fmt"
	"os"

	"github.com/importjs-go/importjs/pkg/exportindex"
	"github.com/importjs-go/importjs/pkg/importer"
	"github.com/importjs-go/importjs/pkg/lint"
	"github.com/importjs-go/importjs/pkg/mcplog"
	"github.com/importjs-go/importjs/pkg/mcpserver"
	"github.com/importjs-go/importjs/pkg/parser"
	"github.com/importjs-go/importjs/pkg/parser/queries"
	"github.com/importjs-go/importjs/pkg/resolver"
	"github.com/importjs-go/importjs/pkg/util"
	"github.com/importjs-go/importjs/pkg/workspace"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "serve":
		runServe(os.Args[2:])
	case "setup":
		runSetup(os.Args[2:])
	case "version":
		fmt.Printf("importjs %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func flagValue(args []string, name string) string {
	for i, arg := range args {
		if arg == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// runServe starts the MCP server on stdin/stdout, backed by a Workspace
// that keeps the named-export registry current as files change under root.
func runServe(args []string) {
	logger := util.NewLogger(util.LoggerConfigFromEnv())
	util.SetDefault(logger)
	root := resolveWorkspaceRoot(flagValue(args, "--root"))

	pm := parser.NewParserManager(logger)
	qm := queries.NewQueryManager(pm, logger)
	index := exportindex.New(pm, qm, logger)

	r := resolver.New(0, logger)
	r.SetExportIndex(index)

	ws := workspace.New(index, r, workspace.Options{}, logger)
	if err := ws.Start(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start workspace watcher: %v\n", err)
		os.Exit(1)
	}
	defer ws.Stop()

	auditLogger, err := mcplog.NewLogger(os.Getenv("IMPORTJS_LOG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open call log: %v\n", err)
		os.Exit(1)
	}
	if auditLogger != nil {
		defer auditLogger.Close()
	}

	im := importer.New(r, lint.New(logger), index, logger)
	srv := mcpserver.NewServer(im, auditLogger)
	if err := srv.ServeStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: importjs <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve      Start the MCP server (--root to override the watched workspace)")
	fmt.Println("  setup      Detect and configure AI agents to use this server")
	fmt.Println("  version    Print version")
	fmt.Println("  help       Show this help message")
}
