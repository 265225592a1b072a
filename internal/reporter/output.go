package reporter

import (
	"fmt"
	"io"
	"os"

	apperrors "ledger-reconciliation-service/pkg/errors"
	"ledger-reconciliation-service/pkg/logger"
)

// OutputSink resolves where a report goes and closes the destination when
// the report is written. An empty path means standard output.
type OutputSink struct {
	writer io.Writer
	file   *os.File
	logger logger.Logger
}

// NewOutputSink opens the report destination. A non-empty path is created or
// truncated; failures map to the file error taxonomy so the CLI exit codes
// stay consistent with the parsers.
func NewOutputSink(path string, log logger.Logger) (*OutputSink, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("reporter")

	if path == "" {
		return &OutputSink{writer: os.Stdout, logger: log}, nil
	}

	file, err := os.Create(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, apperrors.FileError(apperrors.CodeFilePermission, path, err).
				WithSuggestion("Check write permissions on the output location")
		}
		return nil, apperrors.FileError(apperrors.CodeFileNotFound, path, err).
			WithSuggestion("Check that the output directory exists")
	}

	log.WithField("output", path).Debug("Report output opened")

	return &OutputSink{writer: file, file: file, logger: log}, nil
}

// Writer returns the destination writer.
func (s *OutputSink) Writer() io.Writer {
	return s.writer
}

// Description names the destination for logging.
func (s *OutputSink) Description() string {
	if s.file != nil {
		return fmt.Sprintf("file:%s", s.file.Name())
	}
	return "stdout"
}

// Close flushes and closes a file destination. Closing a stdout sink is a
// no-op.
func (s *OutputSink) Close() error {
	if s.file == nil {
		return nil
	}

	if err := s.file.Close(); err != nil {
		return apperrors.FileError(apperrors.CodeFileCorrupted, s.file.Name(), err).
			WithSuggestion("Check free disk space on the output location")
	}

	s.logger.WithField("output", s.file.Name()).Debug("Report output closed")
	return nil
}
