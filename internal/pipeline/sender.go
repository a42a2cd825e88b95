package pipeline

import (
	"context"
	"log/slog"

	"github.com/smartkrishi/smsgate/internal/sms"
)

// runSendWorker drains the send queue, chunking each job and delivering
// chunk by chunk with rate-limited pacing.
func (s *Service) runSendWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("send worker stop")
			return
		case job := <-s.sendQueue:
			s.processSend(ctx, job)
		}
	}
}

// processSend delivers one outbound message. A chunk failure is logged
// and the remaining chunks are still attempted; the job counts as
// failed only when every chunk failed.
func (s *Service) processSend(ctx context.Context, job sendJob) {
	chunks := sms.Chunk(job.text)
	if len(chunks) == 0 {
		return
	}

	failed := 0
	for i, chunk := range chunks {
		if err := s.sendLimiter.Wait(ctx); err != nil {
			return
		}
		if err := s.transport.Send(ctx, job.phone, chunk); err != nil {
			failed++
			s.logger.Warn("chunk send failed",
				slog.String("phone", job.phone),
				slog.Int("chunk", i+1),
				slog.Int("total", len(chunks)),
				slog.Any("error", err),
			)
		}
	}
	if failed == len(chunks) {
		s.logger.Error("send job failed entirely",
			slog.String("phone", job.phone),
			slog.Int("chunks", len(chunks)),
		)
	}
}
