package main

import (
	"fmt"
	"io"
	"strings"

	mdnice "github.com/alnah/go-mdnice"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdnice <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Convert markdown to WeChat, Zhihu or Juejin HTML")
	fmt.Fprintln(w, "  doctor     Check the browser and environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdnice help <command>' for details on a specific command.")
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdnice convert <input>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert markdown through the mdnice editor into platform-styled HTML.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file, directory, or - for stdin")
	fmt.Fprintln(w, "           (optional if config has input.defaultDir)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (single document: stdout)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Platforms converted in parallel (0 = auto)")
	fmt.Fprintln(w, "      --wrap                Save standalone HTML documents")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory overriding templates/document.html")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "  -p, --platform <s>        wechat, zhihu, juejin (repeatable)")
	fmt.Fprintln(w, "      --theme <s>           Theme name, \"random\", or a,b,c to pick from")
	fmt.Fprintf(w, "                            Themes: %s\n", strings.Join(mdnice.Themes, ", "))
	fmt.Fprintln(w, "      --code-theme <s>      Code highlight theme")
	fmt.Fprintf(w, "                            Code themes: %s\n", strings.Join(mdnice.CodeThemes(), ", "))
	fmt.Fprintln(w, "      --mac-style=false     Plain code blocks")
	fmt.Fprintln(w, "      --no-clean            Keep editor attribution attributes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Browser:")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-step timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --retries <n>         Retries for session, load and extraction")
	fmt.Fprintln(w, "      --editor-url <url>    Editor tried before the built-in ones")
	fmt.Fprintln(w, "      --show-browser        Run the local browser with a window")
	fmt.Fprintln(w, "      --remote <url>        Remote browser endpoint")
	fmt.Fprintln(w, "      --token <s>           Remote browser token (prefer MDNICE_REMOTE_TOKEN)")
	fmt.Fprintln(w, "      --protocol <s>        auto, cdp, managed")
	fmt.Fprintln(w, "      --proxy <url>         Proxy server")
	fmt.Fprintln(w, "      --proxy-user <s>      Proxy username")
	fmt.Fprintln(w, "      --proxy-pass <s>      Proxy password")
	fmt.Fprintln(w, "      --proxy-bypass <h>    Hosts that skip the proxy")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Images:")
	fmt.Fprintln(w, "      --image-uploader <s>  none, store, http")
	fmt.Fprintln(w, "      --image-mode <s>      local, remote, all")
	fmt.Fprintln(w, "      --image-dir <dir>     Store uploader directory")
	fmt.Fprintln(w, "      --image-base-url <u>  Public URL of --image-dir")
	fmt.Fprintln(w, "      --image-endpoint <u>  HTTP uploader endpoint")
	fmt.Fprintln(w, "      --image-url-path <p>  Dotted path to the URL in the response")
	fmt.Fprintln(w, "      --image-rate <f>      Max uploads per second")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed progress")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: mdnice doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check the browser, the remote endpoint and the environment.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdnice version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdnice help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
