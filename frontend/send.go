package frontend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/petrel-io/pybuild/iox"
	"github.com/petrel-io/pybuild/journal"
)

// requestMessage is the JSON object delivered to the backend process.
// Path-valued kwargs are already stringified by the operation methods;
// config settings pass through as nested JSON or null. See PROTOCOL.md.
type requestMessage struct {
	Cmd    string         `json:"cmd"`
	Kwargs map[string]any `json:"kwargs"`
	Result string         `json:"result"`
}

// send performs one request/response exchange with the backend.
//
// It reserves a unique result-file path, serializes the request, hands it
// to the transport, polls the returned status to completion, then reads,
// deletes, and decodes the result file. An absent result file becomes a
// synthesized missing-response failure rather than a silent hang.
func (f *Frontend) send(ctx context.Context, cmd string, kwargs map[string]any) (any, string, string, error) {
	exchangeID := uuid.NewString()
	resultFile := filepath.Join(f.tempDir, fmt.Sprintf("pep517_%s-%s.json", cmd, exchangeID))

	msg, err := json.Marshal(requestMessage{Cmd: cmd, Kwargs: kwargs, Result: resultFile})
	if err != nil {
		return nil, "", "", fmt.Errorf("encode request for %s: %w", cmd, err)
	}

	f.collector.IncCommandStarted()
	f.logger.Debug("sending backend command", map[string]any{
		"cmd":         cmd,
		"result_file": resultFile,
	})
	startedAt := time.Now()

	status, err := f.transport.Send(ctx, cmd, resultFile, msg)
	if err != nil {
		f.collector.IncCommandFailed()
		// The backend may have partially started and written its response
		// before the transport gave up.
		iox.DiscardRemove(resultFile)
		return nil, "", "", fmt.Errorf("send %s to backend: %w", cmd, err)
	}

	waitDone(status, f.pollInterval)
	duration := time.Since(startedAt)

	result, err := f.readResult(resultFile)
	if err != nil {
		f.collector.IncCommandFailed()
		return nil, "", "", err
	}

	out, errText := status.OutErr()
	f.collector.AddStreamBytes(len(out), len(errText))

	ret, ok := result["return"]
	rec := &journal.Record{
		ID:         exchangeID,
		Cmd:        cmd,
		Backend:    f.Backend(),
		StartedAt:  startedAt,
		DurationMS: duration.Milliseconds(),
		OutBytes:   len(out),
		ErrBytes:   len(errText),
	}

	if ok {
		f.collector.IncCommandSucceeded()
		rec.Outcome = journal.OutcomeOK
		f.appendJournal(rec)
		f.logger.Debug("backend command completed", map[string]any{
			"cmd":      cmd,
			"duration": duration.String(),
		})
		return ret, out, errText, nil
	}

	backendErr := newBackendError(result, out, errText)
	f.collector.IncCommandFailed()
	rec.Outcome = journal.OutcomeBackendError
	rec.Code = backendErr.Code
	rec.ExcType = backendErr.ExcType
	rec.ExcMsg = backendErr.ExcMsg
	f.appendJournal(rec)
	f.logger.Warn("backend command failed", map[string]any{
		"cmd":      cmd,
		"exc_type": backendErr.ExcType,
		"exc_msg":  backendErr.ExcMsg,
	})
	return nil, out, errText, backendErr
}

// readResult loads and deletes the backend's result file, decoding it as
// either a success or failure shape. A missing file synthesizes the
// documented missing-response failure.
func (f *Frontend) readResult(resultFile string) (map[string]any, error) {
	data, err := os.ReadFile(resultFile)
	switch {
	case os.IsNotExist(err):
		f.collector.IncMissingResponse()
		return map[string]any{
			"code":     float64(codeMissingResponse),
			"exc_type": "RuntimeError",
			"exc_msg":  fmt.Sprintf("Backend response file %s is missing", resultFile),
		}, nil
	case err != nil:
		return nil, fmt.Errorf("read backend response %s: %w", resultFile, err)
	}

	// The file is consumed exactly once, even when it fails to decode.
	iox.DiscardRemove(resultFile)

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode backend response %s: %w", resultFile, err)
	}
	return result, nil
}

func (f *Frontend) appendJournal(rec *journal.Record) {
	if f.journal == nil {
		return
	}
	if err := f.journal.Append(rec); err != nil {
		// The journal is diagnostics, never part of the exchange outcome.
		f.logger.Warn("journal append failed", map[string]any{
			"error": err.Error(),
		})
	}
}
