package exchange

import (
	"go.uber.org/zap"

	"easynfc/pkg/comm"
)

// Serve accepts inbound connections and runs one exchange session per
// connection until the listener is closed. This is the responder side of a
// push handover: the device advertising a candidate address listens here.
func Serve(l comm.Listener, contract Contract) {
	log := zap.L().Named("exchange")
	for {
		sock, err := l.Accept()
		if err != nil {
			log.Info("exchange listener closed", zap.Error(err))
			return
		}
		eng, err := New(sock, contract)
		if err != nil {
			_ = sock.Close()
			continue
		}
		eng.Start()
	}
}
