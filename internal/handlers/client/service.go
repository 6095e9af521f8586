package client

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"legaldash/internal/common/errors"
	"legaldash/internal/common/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type ServiceDependencies struct {
	DB     *sql.DB
	Logger logger.Logger
}

// Service stores client documents in the clients JSONB table.
type Service struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		db:     deps.DB,
		logger: deps.Logger,
	}
}

// Create inserts doc and returns its id. A string "_id" in doc is used as
// the id, otherwise a new UUID is assigned.
func (s *Service) Create(ctx context.Context, doc Document) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	id, _ := doc[IDField].(string)
	if id == "" {
		id = uuid.New().String()
	}

	data, err := encodeDocument(doc)
	if err != nil {
		return "", errors.NewInvalidRequestError(err.Error())
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO clients (id, data, created_at, updated_at) VALUES ($1, $2::jsonb, NOW(), NOW())`,
		id, data,
	)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return "", errors.NewDuplicateClientError(id)
		}
		return "", errors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Info("client created", map[string]interface{}{"clientId": id})
	return id, nil
}

// Get returns the stored document with its id under "_id".
func (s *Service) Get(ctx context.Context, id string) (Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM clients WHERE id = $1`, id).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewClientNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("select client", err)
	}

	doc := Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("decode client %s: %w", id, err))
	}
	doc[IDField] = id
	return doc, nil
}

// Update merges the top-level fields of doc into the stored document.
func (s *Service) Update(ctx context.Context, id string, doc Document) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	data, err := encodeDocument(doc)
	if err != nil {
		return errors.NewInvalidRequestError(err.Error())
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE clients SET data = data || $2::jsonb, updated_at = NOW() WHERE id = $1`,
		id, data,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("update client", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	s.logger.Info("client updated", map[string]interface{}{"clientId": id, "fields": len(doc)})
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return errors.NewQueryExecutionFailedError("delete client", err)
	}
	if err := requireRow(res, id); err != nil {
		return err
	}

	s.logger.Info("client deleted", map[string]interface{}{"clientId": id})
	return nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewQueryExecutionFailedError("rows affected", err)
	}
	if n == 0 {
		return errors.NewClientNotFoundError(id)
	}
	return nil
}

// encodeDocument drops the id key, which lives in its own column.
func encodeDocument(doc Document) (string, error) {
	body := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		if k == IDField {
			continue
		}
		body[k] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode client document: %w", err)
	}
	return string(data), nil
}
