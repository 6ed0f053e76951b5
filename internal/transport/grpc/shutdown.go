package grpcx

import (
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

// Stop переводит health в NOT_SERVING и ждёт завершения вызовов не дольше timeout.
// Открытый health.Watch сам не завершится, поэтому по таймауту рвём всё через Stop.
// Возвращает true, если остановка прошла штатно.
func Stop(srv *grpc.Server, hs *health.Server, timeout time.Duration) bool {
	if hs != nil {
		hs.Shutdown()
	}

	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		slog.Warn("grpc graceful stop timed out, forcing", "timeout", timeout)
		srv.Stop()
		<-done
		return false
	}
}
