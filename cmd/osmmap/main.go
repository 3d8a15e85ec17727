package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/osm-map/internal/config"
	"github.com/joeblew999/osm-map/internal/logging"
	"github.com/joeblew999/osm-map/internal/server"
)

// Options defines all CLI flags and env vars for the map server.
// Flags: --host, --port, --data-dir, --web-dir, --config-dir, --no-db
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_DATA_DIR, ...
type Options struct {
	Host      string `doc:"Host to bind to" default:"0.0.0.0"`
	Port      int    `doc:"Port to listen on" short:"p" default:"8086"`
	DataDir   string `doc:"Directory for maps, settings and the geocode cache" default:".data"`
	WebDir    string `doc:"Serve templates and static files from this directory instead of the embedded copy"`
	ConfigDir string `doc:"Directory containing osmmap.yaml" default:"."`
	NoDB      bool   `doc:"Disable the DuckDB geocode cache"`
}

// newLogger loads .env and osmmap.yaml, then builds the logger they
// configure.
func newLogger(opts *Options) zerolog.Logger {
	_ = godotenv.Load()
	err := config.Load(opts.ConfigDir)
	log := logging.New(os.Stderr, config.GetString("log.level"), config.GetBool("log.pretty"))
	if err != nil {
		log.Warn().Err(err).Msg("Ignoring config file")
	} else if f := config.ConfigFile(); f != "" {
		log.Debug().Str("file", f).Msg("Loaded config")
	}
	return log
}

func newServer(opts *Options, log zerolog.Logger) (*server.Server, error) {
	timeout, err := time.ParseDuration(config.GetString("geocode.timeout"))
	if err != nil {
		timeout = 10 * time.Second
	}
	return server.New(server.Config{
		Host:            opts.Host,
		Port:            fmt.Sprintf("%d", opts.Port),
		DataDir:         opts.DataDir,
		WebDir:          opts.WebDir,
		Settings:        config.Settings(),
		GeocodeEndpoint: config.GetString("geocode.endpoint"),
		GeocodeTimeout:  timeout,
		NoDB:            opts.NoDB,
		Log:             log,
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		log := newLogger(opts)
		var httpServer *http.Server

		hooks.OnStart(func() {
			srv, err := newServer(opts, log)
			if err != nil {
				log.Fatal().Err(err).Msg("Cannot start server")
			}
			defer srv.Close()

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			log.Info().
				Str("server", baseURL).
				Str("data", opts.DataDir).
				Str("editor", baseURL+"/editor").
				Str("docs", baseURL+"/docs").
				Msg("osm-map server starting")

			httpServer = &http.Server{Addr: addr, Handler: srv}
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("Server error")
			}
		})

		hooks.OnStop(func() {
			if httpServer != nil {
				httpServer.Close()
			}
		})
	})

	cli.Root().Use = "osmmap"
	cli.Root().Short = "OpenStreetMap widget service"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			opts.NoDB = true
			srv, err := newServer(opts, newLogger(opts))
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	renderCmd := &cobra.Command{
		Use:   "render <config.yaml>",
		Short: "Render a map config file to a standalone HTML page on stdout",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			widgetOnly, _ := cmd.Flags().GetBool("widget")
			if err := renderFile(os.Stdout, args[0], widgetOnly, newLogger(opts)); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}),
	}
	renderCmd.Flags().BoolP("widget", "w", false, "Write only the widget fragment")
	cli.Root().AddCommand(renderCmd)

	tilesCmd := &cobra.Command{
		Use:   "tiles <config.yaml>",
		Short: "Write the markers of a map config file as a PMTiles archive",
		Args:  cobra.ExactArgs(1),
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			out, _ := cmd.Flags().GetString("output")
			minZoom, _ := cmd.Flags().GetInt("min-zoom")
			maxZoom, _ := cmd.Flags().GetInt("max-zoom")
			if err := writeTiles(out, args[0], minZoom, maxZoom, newLogger(opts)); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("Marker tiles written to %s\n", out)
		}),
	}
	tilesCmd.Flags().StringP("output", "o", "markers.pmtiles", "Output archive path")
	tilesCmd.Flags().Int("min-zoom", 0, "Lowest zoom level")
	tilesCmd.Flags().Int("max-zoom", 14, "Highest zoom level")
	cli.Root().AddCommand(tilesCmd)

	cli.Root().AddCommand(&cobra.Command{
		Use:   "center <lat,lng>...",
		Short: "Print the geographic center of the given coordinates",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			if err := printCenter(os.Stdout, args, newLogger(opts)); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}),
	})

	cli.Run()
}
