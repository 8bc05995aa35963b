// Package bot composes automated replies from the knowledge base, a
// small set of structured commands, and a default fallback.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aditpras/lapakchat/internal/domain"
	"github.com/aditpras/lapakchat/internal/knowledge"
	"github.com/aditpras/lapakchat/internal/store"
)

// Welcome is pushed to every user session right after it joins.
const Welcome = "Halo! Selamat datang di layanan bantuan LapakChat. " +
	"Silakan tulis pertanyaan Anda, tim kami atau asisten otomatis akan segera membantu."

const (
	trxStatusTemplate     = "Status transaksi %s (%s): %s."
	trxInProgressTemplate = "Transaksi %s sedang diproses. Mohon tunggu beberapa saat lagi ya."
	trxPromptReply        = "Silakan sertakan ID transaksi Anda, contoh: cek trx TRX12345."
)

// Responder answers user messages when no human admin is reachable.
// It never fails: a miss at every stage resolves to the fallback reply.
type Responder struct {
	matcher *knowledge.Matcher
	repo    store.Repository
	hints   []string
}

// NewResponder builds a responder. The repository may be nil, in which
// case transaction-status commands answer with the in-progress template.
func NewResponder(matcher *knowledge.Matcher, repo store.Repository, entries []domain.KnowledgeEntry) *Responder {
	hints := make([]string, 0, 3)
	for _, e := range entries {
		if len(hints) == 3 {
			break
		}
		if len(e.Keywords) > 0 {
			hints = append(hints, e.Keywords[0])
		}
	}
	return &Responder{
		matcher: matcher,
		repo:    repo,
		hints:   hints,
	}
}

// Reply composes the automated answer for a user message.
func (r *Responder) Reply(ctx context.Context, content string) string {
	text := strings.ToLower(strings.TrimSpace(content))

	if entry, ok := r.matcher.Match(text); ok {
		return entry.Answer
	}

	if reply, ok := r.parseCommand(ctx, text); ok {
		return reply
	}

	return r.fallback()
}

// parseCommand handles the structured "cek trx <id>" status command.
func (r *Responder) parseCommand(ctx context.Context, text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 || fields[0] != "cek" || fields[1] != "trx" {
		return "", false
	}
	if len(fields) < 3 {
		return trxPromptReply, true
	}

	trxID := fields[2]
	if r.repo != nil {
		trx, err := r.repo.GetTransaction(ctx, trxID)
		if err != nil {
			slog.Warn("Transaction lookup failed", "trx_id", trxID, "error", err)
		} else if trx != nil {
			return fmt.Sprintf(trxStatusTemplate, trx.TrxID, trx.Product, trx.Status), true
		}
	}
	return fmt.Sprintf(trxInProgressTemplate, trxID), true
}

func (r *Responder) fallback() string {
	if len(r.hints) == 0 {
		return "Maaf, kami belum memahami pertanyaan Anda. Silakan coba kata kunci lain."
	}
	return fmt.Sprintf(
		"Maaf, kami belum memahami pertanyaan Anda. Coba gunakan kata kunci seperti: %s.",
		strings.Join(r.hints, ", "),
	)
}
