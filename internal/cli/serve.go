package cli

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chazu/steplab/internal/config"
	"github.com/chazu/steplab/internal/server"
	"github.com/chazu/steplab/pkg/kernel/memkernel"
)

func newServeCmd() *cobra.Command {
	var demo bool

	cmd := &cobra.Command{
		Use:   "serve [file.step]",
		Short: "Start the face labeling HTTP server",
		Long: `Start the HTTP server. An optional STEP file argument is loaded into
the session before serving. With --watch the loaded file is reloaded
whenever it changes on disk.

Loading real STEP geometry requires a B-rep kernel backend. The --demo
flag substitutes an in-memory kernel that answers every load with a
fixture part, which is enough to exercise the API and the exporter.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			if !demo {
				return errors.New("no B-rep kernel backend is built in; run with --demo for the fixture kernel")
			}
			kern := memkernel.New()
			kern.SetFallback(memkernel.BoxWithBore(40, 30, 20, 6))

			logger := newLogger()
			srv := server.New(server.Config{
				Kernel:            kern,
				Port:              cfg.Server.Port,
				UploadDir:         cfg.Server.UploadDir,
				MaxUploadMB:       cfg.Server.MaxUploadMB,
				LinearDeflection:  cfg.Mesh.LinearDeflection,
				AngularDeflection: cfg.Mesh.AngularDeflection,
				Watch:             cfg.Watch,
				Logger:            logger,
			})

			if len(args) == 1 {
				if err := srv.Preload(args[0]); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().Int("port", 5000, "port to listen on")
	cmd.Flags().String("upload-dir", "", "base directory for uploads (default: system temp)")
	cmd.Flags().Int("max-upload", 100, "maximum upload size in MB")
	cmd.Flags().Float64("linear", 0.1, "default linear deflection for tessellation")
	cmd.Flags().Float64("angular", 0.5, "default angular deflection for tessellation")
	cmd.Flags().Bool("watch", false, "reload the loaded file when it changes on disk")
	cmd.Flags().BoolVar(&demo, "demo", false, "use the in-memory fixture kernel")

	return cmd
}
