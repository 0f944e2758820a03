package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"easynfc/pkg/comm"
	"easynfc/pkg/config"
	"easynfc/pkg/dedup"
	"easynfc/pkg/dispatch"
	"easynfc/pkg/exchange"
	"easynfc/pkg/handover"
	"easynfc/pkg/ndef"
	"easynfc/pkg/observability"
	"easynfc/pkg/payload"
)

// peerCard is the payload this peer pushes during an exchange.
type peerCard struct {
	Name string `json:"name" cbor:"name"`
	Host string `json:"host" cbor:"host"`
}

// peerContract wires responder-side exchanges into the dispatch chain.
type peerContract struct {
	chain *dispatch.Chain
	mgr   *handover.Manager
}

func (c *peerContract) HandleInbound(msg *ndef.Message) { c.chain.Submit(msg) }
func (c *peerContract) OutboundMessage() *ndef.Message  { return c.mgr.ForegroundMessage() }

// run is the main entry point after CLI parsing.
func run(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	zap.L().Info("easynfc-peer started", zap.String("app", cfg.AppName))

	chain := dispatch.NewChain()
	mgr := handover.NewManager(func(msg *ndef.Message) { chain.Submit(msg) })
	mgr.SetEnabled(cfg.Handover.Enable)

	// Proximity reads repeat; drop duplicates before they reach the
	// negotiation path.
	seen := dedup.NewFilter(3*time.Second, 1024)
	chain.Register(dispatch.EmptyPriority+1, dispatch.HandlerFunc(func(msg *ndef.Message) dispatch.Outcome {
		if seen.Seen(msg) {
			zap.L().Debug("duplicate message dropped")
			return dispatch.Consumed
		}
		return dispatch.Propagated
	}))
	chain.RegisterHandler(mgr)
	chain.Register(dispatch.DefaultPriority, dispatch.HandlerFunc(logInbound))

	radio := comm.NewLoopbackNetwork().Adapter("local")
	for _, t := range cfg.Handover.Transports {
		switch t {
		case "tcp":
			mgr.AddInitiator(handover.NewTCPInitiator())
		case "quic":
			mgr.AddInitiator(handover.NewQUICInitiator())
		case "radio":
			mgr.AddInitiator(handover.NewRadioInitiator(radio))
		}
	}

	codecs, err := payload.NewRegistry()
	if err != nil {
		zap.L().Error("payload codecs unavailable", zap.Error(err))
		return 1
	}
	jsonCodec, _ := codecs.Get("application/json")
	host, _ := os.Hostname()
	card, err := jsonCodec.Marshal(peerCard{Name: cfg.AppName, Host: host})
	if err != nil {
		zap.L().Error("encode peer card", zap.Error(err))
		return 1
	}
	mgr.SetForegroundMessage(ndef.FromMime(jsonCodec.ContentType(), card))

	contract := &peerContract{chain: chain, mgr: mgr}
	var listeners []comm.Listener
	if cfg.Exchange.TCPListen != "" {
		l, err := comm.ListenTCP(cfg.Exchange.TCPListen)
		if err != nil {
			zap.L().Error("tcp listen failed", zap.String("addr", cfg.Exchange.TCPListen), zap.Error(err))
			return 1
		}
		zap.L().Info("exchange listener up", zap.String("transport", "tcp"), zap.Stringer("addr", l.Addr()))
		listeners = append(listeners, l)
		go exchange.Serve(l, contract)
	}
	if cfg.Exchange.QUICListen != "" {
		l, err := comm.ListenQUIC(cfg.Exchange.QUICListen)
		if err != nil {
			zap.L().Error("quic listen failed", zap.String("addr", cfg.Exchange.QUICListen), zap.Error(err))
			return 1
		}
		zap.L().Info("exchange listener up", zap.String("transport", "quic"), zap.Stringer("addr", l.Addr()))
		listeners = append(listeners, l)
		go exchange.Serve(l, contract)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	zap.L().Info("shutting down")
	for _, l := range listeners {
		_ = l.Close()
	}
	return 0
}

// logInbound reports every message that reached the application layer.
func logInbound(msg *ndef.Message) dispatch.Outcome {
	for i, r := range msg.Records() {
		if uri, err := ndef.ParseURI(r); err == nil {
			zap.L().Info("inbound record", zap.Int("index", i), zap.String("uri", uri))
			continue
		}
		zap.L().Info("inbound record", zap.Int("index", i),
			zap.Stringer("tnf", r.TNF()), zap.ByteString("type", r.Type()),
			zap.Int("payload_len", len(r.Payload())))
	}
	return dispatch.Consumed
}
