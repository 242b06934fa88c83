package graph

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lorekeep/lorekeep/errors"
)

const (
	nodeSelectColumns = `id, object_id, object_kind, characteristic, created_at`

	relationSelectColumns = `id, from_node_id, to_node_id, from_kind, to_kind, relation_type, description, metadata, created_at`

	relationInsertQuery = `
		INSERT INTO relations (id, from_node_id, to_node_id, from_kind, to_kind, relation_type, description, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

// Store is the repository for one world's relation overlay.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// NewStore creates a graph store bound to one world's database handle.
func NewStore(db *sql.DB, logger *zap.SugaredLogger) *Store {
	if logger != nil {
		logger = logger.Named("graph.store")
	}
	return &Store{
		db:     db,
		logger: logger,
	}
}

// Activate brings a domain object into the graph. Repeated activation of the
// same (objectID, kind) pair returns the existing node; a non-empty
// characteristic updates the stored one so the latest classification wins.
func (s *Store) Activate(objectID, objectKind, characteristic string) (*Node, error) {
	if objectID == "" || objectKind == "" {
		return nil, errors.New("graph activation needs an object id and kind")
	}

	existing, err := s.nodeByObject(objectID, objectKind)
	if err != nil && !errors.Is(err, errors.ErrNodeNotFound) {
		return nil, err
	}
	if existing != nil {
		if characteristic != "" && characteristic != existing.Characteristic {
			if _, err := s.db.Exec(
				`UPDATE nodes SET characteristic = ? WHERE id = ?`, characteristic, existing.ID); err != nil {
				return nil, errors.Wrap(err, "update node characteristic")
			}
			existing.Characteristic = characteristic
		}
		return existing, nil
	}

	res, err := s.db.Exec(
		`INSERT INTO nodes (object_id, object_kind, characteristic) VALUES (?, ?, ?)`,
		objectID, objectKind, characteristic)
	if err != nil {
		// A concurrent activation may have won the unique index race
		if node, lookupErr := s.nodeByObject(objectID, objectKind); lookupErr == nil {
			return node, nil
		}
		return nil, errors.Wrap(err, "insert node")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "node insert id")
	}

	if s.logger != nil {
		s.logger.Infow("Node activated", "node_id", id, "object_id", objectID, "kind", objectKind)
	}
	return s.GetNode(id)
}

// GetNode returns a node by id.
func (s *Store) GetNode(id int64) (*Node, error) {
	row := s.db.QueryRow(`SELECT `+nodeSelectColumns+` FROM nodes WHERE id = ?`, id)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNodeNotFound, "node %d", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan node")
	}
	return n, nil
}

// CreateRelation connects two activated nodes with a typed edge. Both
// endpoints must exist; the relation id is a fresh uuid.
func (s *Store) CreateRelation(fromNodeID, toNodeID int64, relType, description string, metadata json.RawMessage) (*Relation, error) {
	if relType == "" {
		return nil, errors.New("relation type must not be empty")
	}

	from, err := s.GetNode(fromNodeID)
	if err != nil {
		return nil, err
	}
	to, err := s.GetNode(toNodeID)
	if err != nil {
		return nil, err
	}

	meta := "{}"
	if len(metadata) > 0 {
		if !json.Valid(metadata) {
			return nil, errors.New("relation metadata must be valid JSON")
		}
		meta = string(metadata)
	}

	id := uuid.New().String()
	if _, err := s.db.Exec(relationInsertQuery,
		id, from.ID, to.ID, from.ObjectKind, to.ObjectKind, relType, description, meta); err != nil {
		return nil, errors.Wrap(err, "insert relation")
	}

	if s.logger != nil {
		s.logger.Infow("Relation created",
			"relation_id", id, "from", from.ID, "to", to.ID, "type", relType)
	}
	return s.GetRelation(id)
}

// GetRelation returns a relation by uuid.
func (s *Store) GetRelation(id string) (*Relation, error) {
	row := s.db.QueryRow(`SELECT `+relationSelectColumns+` FROM relations WHERE id = ?`, id)
	r, err := scanRelation(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrRelationNotFound, "relation %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan relation")
	}
	return r, nil
}

// DeleteRelation removes an edge. Relations carry no authored content beyond
// the edge itself, so removal is hard, not soft.
func (s *Store) DeleteRelation(id string) error {
	res, err := s.db.Exec(`DELETE FROM relations WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete relation")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrRelationNotFound, "relation %s", id)
	}
	return nil
}

// DeleteRelationsBetween removes every edge between two nodes, regardless of
// direction or type. Missing edges are not an error.
func (s *Store) DeleteRelationsBetween(a, b int64) error {
	_, err := s.db.Exec(
		`DELETE FROM relations
		 WHERE (from_node_id = ? AND to_node_id = ?) OR (from_node_id = ? AND to_node_id = ?)`,
		a, b, b, a)
	if err != nil {
		return errors.Wrap(err, "delete relations between nodes")
	}
	return nil
}

// RelationsFor lists every relation touching a node, in either direction.
func (s *Store) RelationsFor(nodeID int64) ([]Relation, error) {
	if _, err := s.GetNode(nodeID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT `+relationSelectColumns+` FROM relations
		 WHERE from_node_id = ? OR to_node_id = ?
		 ORDER BY created_at, id`, nodeID, nodeID)
	if err != nil {
		return nil, errors.Wrap(err, "query relations")
	}
	defer rows.Close()

	var relations []Relation
	for rows.Next() {
		r, err := scanRelation(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan relation")
		}
		relations = append(relations, *r)
	}
	return relations, rows.Err()
}

// AutoLinkByCharacteristic connects every pair of nodes sharing a
// characteristic with a relation of the given type. Pairs already related
// with that type in either direction are skipped, so repeated runs add
// nothing. A node is never linked to itself. Returns the number of relations
// created.
func (s *Store) AutoLinkByCharacteristic(characteristic, relType string) (int, error) {
	if characteristic == "" {
		return 0, errors.New("auto-link needs a characteristic")
	}
	if relType == "" {
		return 0, errors.New("relation type must not be empty")
	}

	rows, err := s.db.Query(
		`SELECT `+nodeSelectColumns+` FROM nodes WHERE characteristic = ? ORDER BY id`, characteristic)
	if err != nil {
		return 0, errors.Wrap(err, "query nodes by characteristic")
	}
	var nodes []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			rows.Close()
			return 0, errors.Wrap(err, "scan node")
		}
		nodes = append(nodes, *n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, errors.Wrap(err, "read nodes")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "begin auto-link")
	}
	defer tx.Rollback()

	created := 0
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]

			var exists bool
			err := tx.QueryRow(
				`SELECT EXISTS(
					SELECT 1 FROM relations
					WHERE relation_type = ?
					  AND ((from_node_id = ? AND to_node_id = ?) OR (from_node_id = ? AND to_node_id = ?))
				)`, relType, a.ID, b.ID, b.ID, a.ID,
			).Scan(&exists)
			if err != nil {
				return 0, errors.Wrap(err, "check existing relation")
			}
			if exists {
				continue
			}

			if _, err := tx.Exec(relationInsertQuery,
				uuid.New().String(), a.ID, b.ID, a.ObjectKind, b.ObjectKind, relType, "", "{}"); err != nil {
				return 0, errors.Wrap(err, "insert auto-link relation")
			}
			created++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit auto-link")
	}

	if s.logger != nil && created > 0 {
		s.logger.Infow("Auto-link pass completed",
			"characteristic", characteristic, "type", relType, "created", created)
	}
	return created, nil
}

func (s *Store) nodeByObject(objectID, objectKind string) (*Node, error) {
	row := s.db.QueryRow(
		`SELECT `+nodeSelectColumns+` FROM nodes WHERE object_id = ? AND object_kind = ?`,
		objectID, objectKind)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(errors.ErrNodeNotFound, "object %s/%s", objectKind, objectID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan node")
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNode(row rowScanner) (*Node, error) {
	var n Node
	if err := row.Scan(&n.ID, &n.ObjectID, &n.ObjectKind, &n.Characteristic, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func scanRelation(row rowScanner) (*Relation, error) {
	var (
		r    Relation
		meta string
	)
	err := row.Scan(&r.ID, &r.FromNodeID, &r.ToNodeID, &r.FromKind, &r.ToKind, &r.Type, &r.Description, &meta, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if meta != "" {
		r.Metadata = json.RawMessage(meta)
	}
	return &r, nil
}
