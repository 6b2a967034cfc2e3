package bridge

import (
	"context"
	"log/slog"

	"github.com/jessevdk/go-flags"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Run starts the bridge daemon with the supplied CLI arguments.
func Run(args []string) error {
	options := &Options{}
	_, err := flags.ParseArgs(options, args)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if options.ConfigURL != "" {
		fs := afs.New()
		data, err := fs.DownloadWithURL(ctx, options.ConfigURL)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, options); err != nil {
			return err
		}
	}
	service, err := New(options.ServiceOptions()...)
	if err != nil {
		return err
	}
	defer service.Close()
	service.Start(ctx)
	server := service.HTTP(ctx, options.Addr)
	slog.Info("bridge listening", "addr", server.Addr, "rpc", options.RPCURI, "peer", options.PeerURI)
	return server.ListenAndServe()
}
