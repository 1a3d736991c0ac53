// Package answers ingests candidate answer audio into an in-progress session.
// Each accepted upload stores the audio blob and rebinds the session's
// question mapping so the processing stage can find it later.
package answers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"intervue/internal/logging"
	"intervue/internal/objectstore"
	"intervue/internal/services"
	"intervue/internal/sessions"
)

// Upload is one answer recording destined for a single question.
type Upload struct {
	QuestionID string
	Audio      []byte
}

// Ingestor attaches answer audio to session questions.
type Ingestor struct {
	manager     *sessions.Manager
	objects     objectstore.Store
	concurrency int
	logger      *slog.Logger
}

// NewIngestor constructs an ingestor. concurrency bounds how many audio blobs
// a batch upload stores at once.
func NewIngestor(manager *sessions.Manager, objects objectstore.Store, concurrency int, logger *slog.Logger) *Ingestor {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Ingestor{
		manager:     manager,
		objects:     objects,
		concurrency: concurrency,
		logger:      logging.NewComponentLogger(logger, "answers"),
	}
}

// UploadAnswer stores one answer recording, binds it to its question, and
// returns the stored audio reference.
//
// The mapping document is replaced wholesale under a fresh key, so two
// concurrent uploads for the same session race and the last writer wins.
// Callers upload answers for a session from a single client at a time.
func (i *Ingestor) UploadAnswer(ctx context.Context, sessionID, questionID string, audio []byte) (string, error) {
	if sessionID == "" {
		return "", services.Wrap(services.ErrValidation, "answers", "upload", "session id required", nil)
	}
	if questionID == "" {
		return "", services.Wrap(services.ErrValidation, "answers", "upload", "question id required", nil)
	}
	if len(audio) == 0 {
		return "", services.Wrap(services.ErrValidation, "answers", "upload", "audio payload required", nil)
	}

	session, err := i.manager.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session.Status.IsTerminal() {
		return "", services.Wrap(services.ErrValidation, "answers", "upload",
			fmt.Sprintf("session already %s", session.Status), nil)
	}

	var mapping []sessions.QuestionMappingEntry
	if err := i.objects.GetDocument(ctx, session.MappingRef, &mapping); err != nil {
		return "", err
	}

	// Find the target question before storing anything so an unknown id
	// leaves the session untouched.
	index := -1
	for n, entry := range mapping {
		if entry.QuestionID == questionID {
			index = n
			break
		}
	}
	if index < 0 {
		return "", services.Wrap(services.ErrNotFound, "answers", "upload",
			fmt.Sprintf("question %s not part of session %s", questionID, sessionID), nil)
	}

	audioRef, err := i.objects.PutBlob(ctx, sessions.AnswerAudioKey(session.UserID, sessionID, questionID), audio)
	if err != nil {
		return "", err
	}
	mapping[index].AnswerAudio = audioRef

	mappingRef, err := i.objects.PutDocument(ctx, sessions.MappingKey(session.UserID, sessionID), mapping)
	if err != nil {
		return "", err
	}
	if err := i.manager.UpdateMappingRef(ctx, sessionID, mappingRef); err != nil {
		return "", err
	}

	i.logger.Info("answer ingested",
		logging.String(logging.FieldSessionID, sessionID),
		logging.String("question_id", questionID),
		logging.Int("audio_bytes", len(audio)))
	return audioRef, nil
}

// UploadBatch stores every upload's audio concurrently, then binds them to
// the mapping in one pass and returns the stored audio reference per
// question. The batch is all-or-nothing: any failure aborts before the
// mapping is rebound and the error is returned.
func (i *Ingestor) UploadBatch(ctx context.Context, sessionID string, uploads []Upload) (map[string]string, error) {
	if sessionID == "" {
		return nil, services.Wrap(services.ErrValidation, "answers", "upload_batch", "session id required", nil)
	}
	if len(uploads) == 0 {
		return nil, services.Wrap(services.ErrValidation, "answers", "upload_batch", "no uploads supplied", nil)
	}
	for _, upload := range uploads {
		if upload.QuestionID == "" || len(upload.Audio) == 0 {
			return nil, services.Wrap(services.ErrValidation, "answers", "upload_batch", "every upload needs a question id and audio", nil)
		}
	}

	session, err := i.manager.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status.IsTerminal() {
		return nil, services.Wrap(services.ErrValidation, "answers", "upload_batch",
			fmt.Sprintf("session already %s", session.Status), nil)
	}

	var mapping []sessions.QuestionMappingEntry
	if err := i.objects.GetDocument(ctx, session.MappingRef, &mapping); err != nil {
		return nil, err
	}
	indexByQuestion := make(map[string]int, len(mapping))
	for n, entry := range mapping {
		indexByQuestion[entry.QuestionID] = n
	}
	for _, upload := range uploads {
		if _, ok := indexByQuestion[upload.QuestionID]; !ok {
			return nil, services.Wrap(services.ErrNotFound, "answers", "upload_batch",
				fmt.Sprintf("question %s not part of session %s", upload.QuestionID, sessionID), nil)
		}
	}

	refs, err := i.storeAudioBatch(ctx, session.UserID, sessionID, uploads)
	if err != nil {
		return nil, err
	}
	for questionID, ref := range refs {
		mapping[indexByQuestion[questionID]].AnswerAudio = ref
	}

	mappingRef, err := i.objects.PutDocument(ctx, sessions.MappingKey(session.UserID, sessionID), mapping)
	if err != nil {
		return nil, err
	}
	if err := i.manager.UpdateMappingRef(ctx, sessionID, mappingRef); err != nil {
		return nil, err
	}

	i.logger.Info("answer batch ingested",
		logging.String(logging.FieldSessionID, sessionID),
		logging.Int("upload_count", len(uploads)))
	return refs, nil
}

func (i *Ingestor) storeAudioBatch(ctx context.Context, userID, sessionID string, uploads []Upload) (map[string]string, error) {
	type result struct {
		questionID string
		ref        string
		err        error
	}

	work := make(chan Upload)
	results := make(chan result, len(uploads))
	var wg sync.WaitGroup

	workers := i.concurrency
	if workers > len(uploads) {
		workers = len(uploads)
	}
	for n := 0; n < workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for upload := range work {
				ref, err := i.objects.PutBlob(ctx, sessions.AnswerAudioKey(userID, sessionID, upload.QuestionID), upload.Audio)
				results <- result{questionID: upload.QuestionID, ref: ref, err: err}
			}
		}()
	}
	for _, upload := range uploads {
		work <- upload
	}
	close(work)
	wg.Wait()
	close(results)

	refs := make(map[string]string, len(uploads))
	for r := range results {
		if r.err != nil {
			return nil, r.err
		}
		refs[r.questionID] = r.ref
	}
	return refs, nil
}
