package bridge

import (
	"time"

	"github.com/toolbridge/bridge/schema"
)

// Options configures the bridge daemon. Fields can be populated from CLI
// flags or from a YAML config file referenced by ConfigURL.
type Options struct {
	Name    string `yaml:"name" json:"name,omitempty" short:"n" long:"name" description:"bridge name" default:"toolbridge"`
	Version string `yaml:"version,omitempty" json:"version,omitempty" short:"v" long:"version" description:"bridge version" default:"0.1"`

	Addr    string `yaml:"addr,omitempty" json:"addr,omitempty" short:"a" long:"addr" description:"http listen address" default:"127.0.0.1:5000"`
	RPCURI  string `yaml:"rpcURI,omitempty" json:"rpcURI,omitempty" long:"rpc-uri" description:"caller streamable http endpoint" default:"/rpc"`
	PeerURI string `yaml:"peerURI,omitempty" json:"peerURI,omitempty" long:"peer-uri" description:"peer websocket endpoint" default:"/peer"`

	CallTimeoutSec      int `yaml:"callTimeoutSec,omitempty" json:"callTimeoutSec,omitempty" long:"call-timeout" description:"tool call timeout in seconds" default:"30"`
	HandshakeTimeoutSec int `yaml:"handshakeTimeoutSec,omitempty" json:"handshakeTimeoutSec,omitempty" long:"handshake-timeout" description:"handshake timeout in seconds" default:"10"`
	SweepIntervalSec    int `yaml:"sweepIntervalSec,omitempty" json:"sweepIntervalSec,omitempty" long:"sweep-interval" description:"pending request sweep interval in seconds" default:"1"`

	Cors *Cors `yaml:"cors,omitempty" json:"cors,omitempty"`

	ConfigURL string `yaml:"-" json:"-" short:"c" long:"config" description:"yaml config URL"`
}

// Init fills defaults for fields a config file may have blanked.
func (o *Options) Init() {
	if o.Name == "" {
		o.Name = "toolbridge"
		o.Version = "0.1"
	}
	if o.CallTimeoutSec <= 0 {
		o.CallTimeoutSec = 30
	}
	if o.HandshakeTimeoutSec <= 0 {
		o.HandshakeTimeoutSec = 10
	}
	if o.SweepIntervalSec <= 0 {
		o.SweepIntervalSec = 1
	}
}

// ServiceOptions converts daemon options into service options.
func (o *Options) ServiceOptions() []Option {
	o.Init()
	result := []Option{
		WithImplementation(schema.Implementation{Name: o.Name, Version: o.Version}),
		WithCallTimeout(time.Duration(o.CallTimeoutSec) * time.Second),
		WithHandshakeTimeout(time.Duration(o.HandshakeTimeoutSec) * time.Second),
		WithSweepInterval(time.Duration(o.SweepIntervalSec) * time.Second),
		WithAddr(o.Addr),
	}
	if o.RPCURI != "" {
		result = append(result, WithRPCURI(o.RPCURI))
	}
	if o.PeerURI != "" {
		result = append(result, WithPeerURI(o.PeerURI))
	}
	if o.Cors != nil {
		result = append(result, WithCORS(o.Cors))
	}
	return result
}
