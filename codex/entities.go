package codex

import (
	"database/sql"
	"strconv"

	"github.com/lorekeep/lorekeep/errors"
)

const (
	entitySelectColumns = `id, name, slug, folder_id, special_kind, deleted, deleted_at, created_at`

	entityInsertQuery = `
		INSERT INTO entities (name, folder_id, special_kind, slug)
		VALUES (?, ?, ?, '')`

	valueSelectQuery = `
		SELECT v.id, v.entity_id, v.template_id, t.name, v.value_type, v.value, v.created_at, v.updated_at
		FROM attribute_values v
		JOIN attribute_templates t ON t.id = v.template_id
		WHERE v.entity_id = ?
		ORDER BY v.id`

	valueInsertQuery = `
		INSERT INTO attribute_values (entity_id, template_id, value_type, value)
		VALUES (?, ?, ?, ?)`
)

// CreateEntity creates an entity in a folder and materializes its attribute
// set: one value row per effective template, seeded with the template's
// default. The declared type is snapshotted onto each value row so later
// template edits never reinterpret stored content.
func (s *Store) CreateEntity(name string, folderID int64, specialKind string) (*Entity, error) {
	if name == "" {
		return nil, errors.New("entity name must not be empty")
	}

	templates, err := s.EffectiveTemplates(folderID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "begin create entity")
	}
	defer tx.Rollback()

	res, err := tx.Exec(entityInsertQuery, name, folderID, specialKind)
	if err != nil {
		return nil, errors.Wrap(err, "insert entity")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.Wrap(err, "entity insert id")
	}

	if err := assignSlug(tx, "entities", id, name); err != nil {
		return nil, err
	}

	for _, t := range templates {
		if _, err := tx.Exec(valueInsertQuery, id, t.ID, string(t.Type), t.DefaultValue); err != nil {
			return nil, errors.Wrapf(err, "snapshot value for template %q", t.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit create entity")
	}

	if s.logger != nil {
		s.logger.Infow("Entity created",
			"entity_id", id, "name", name, "folder_id", folderID, "values", len(templates))
	}
	return s.GetEntity(id)
}

// GetEntity returns a visible entity by id with its values eagerly loaded.
func (s *Store) GetEntity(id int64) (*Entity, error) {
	return s.getEntityWhere(`id = ? AND deleted = 0`,
		errors.NewNotFoundf(errors.ErrEntityNotFound, "entity %d", id), id)
}

// GetEntityBySlug returns a visible entity by its stable slug.
func (s *Store) GetEntityBySlug(slugVal string) (*Entity, error) {
	return s.getEntityWhere(`slug = ? AND deleted = 0`,
		errors.NewNotFoundf(errors.ErrEntityNotFound, "entity %q", slugVal), slugVal)
}

// ResolveEntity accepts either a numeric id or a slug. A ref that parses as
// an integer is tried as an id first, then as a slug.
func (s *Store) ResolveEntity(ref string) (*Entity, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if e, err := s.GetEntity(id); err == nil {
			return e, nil
		}
	}
	return s.GetEntityBySlug(ref)
}

// ListEntitiesInFolder lists the visible entities directly in one folder.
// Values are not loaded; use GetEntity for the full record.
func (s *Store) ListEntitiesInFolder(folderID int64) ([]Entity, error) {
	if err := folderVisible(s.db, folderID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT `+entitySelectColumns+` FROM entities WHERE folder_id = ? AND deleted = 0 ORDER BY name, id`,
		folderID)
	if err != nil {
		return nil, errors.Wrap(err, "list entities")
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan entity")
		}
		entities = append(entities, *e)
	}
	return entities, rows.Err()
}

// UpdateEntityValues applies a batch of value changes to one entity. Every
// update is validated against its value row's snapshotted type before any row
// is written, so a single bad value leaves the entity untouched.
func (s *Store) UpdateEntityValues(entityID int64, updates []ValueUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if err := s.entityVisible(entityID); err != nil {
		return err
	}

	values, err := s.entityValues(entityID)
	if err != nil {
		return err
	}
	byID := make(map[int64]AttributeValue, len(values))
	for _, v := range values {
		byID[v.ID] = v
	}

	for _, u := range updates {
		v, ok := byID[u.ValueID]
		if !ok {
			return errors.NewNotFoundf(errors.ErrValueNotFound, "value %d on entity %d", u.ValueID, entityID)
		}
		options, err := s.valueOptions(v.TemplateID)
		if err != nil {
			return err
		}
		if err := validateValue(v.Type, options, u.NewValue); err != nil {
			return errors.WithMessagef(err, "value %d (%s)", u.ValueID, v.TemplateName)
		}
		if v.Type == TypeEntityRef && u.NewValue != "" {
			if err := s.checkEntityRef(u.NewValue); err != nil {
				return errors.WithMessagef(err, "value %d (%s)", u.ValueID, v.TemplateName)
			}
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin update values")
	}
	defer tx.Rollback()

	ts := now()
	for _, u := range updates {
		if _, err := tx.Exec(
			`UPDATE attribute_values SET value = ?, updated_at = ? WHERE id = ?`,
			u.NewValue, ts, u.ValueID); err != nil {
			return errors.Wrap(err, "write value")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit update values")
	}

	if s.logger != nil {
		s.logger.Infow("Entity values updated", "entity_id", entityID, "count", len(updates))
	}
	return nil
}

// AddAttributeToEntity backfills one template's value onto an existing
// entity, seeded with the template default. Entities created before a
// template was declared do not pick it up automatically; this is the
// explicit opt-in. Adding a template the entity already carries is a no-op.
func (s *Store) AddAttributeToEntity(entityID, templateID int64) error {
	if err := s.entityVisible(entityID); err != nil {
		return err
	}
	t, err := s.GetTemplate(templateID)
	if err != nil {
		return err
	}

	var exists bool
	if err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM attribute_values WHERE entity_id = ? AND template_id = ?)`,
		entityID, templateID,
	).Scan(&exists); err != nil {
		return errors.Wrap(err, "check existing value")
	}
	if exists {
		return nil
	}

	if _, err := s.db.Exec(valueInsertQuery, entityID, templateID, string(t.Type), t.DefaultValue); err != nil {
		return errors.Wrap(err, "insert backfilled value")
	}

	if s.logger != nil {
		s.logger.Infow("Attribute backfilled", "entity_id", entityID, "template_id", templateID, "name", t.Name)
	}
	return nil
}

// DeleteEntity soft-deletes an entity. Its values stay in place and become
// invisible with it. Deleting an already-deleted entity is a no-op.
func (s *Store) DeleteEntity(id int64) error {
	var deleted bool
	err := s.db.QueryRow(`SELECT deleted FROM entities WHERE id = ?`, id).Scan(&deleted)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundf(errors.ErrEntityNotFound, "entity %d", id)
	}
	if err != nil {
		return errors.Wrap(err, "load entity")
	}
	if deleted {
		return nil
	}

	if _, err := s.db.Exec(
		`UPDATE entities SET deleted = 1, deleted_at = ? WHERE id = ?`, now(), id); err != nil {
		return errors.Wrap(err, "soft-delete entity")
	}

	if s.logger != nil {
		s.logger.Infow("Entity soft-deleted", "entity_id", id)
	}
	return nil
}

// RestoreEntity clears the soft-delete flag, bringing the entity and all of
// its values back exactly as they were.
func (s *Store) RestoreEntity(id int64) error {
	res, err := s.db.Exec(
		`UPDATE entities SET deleted = 0, deleted_at = NULL WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "restore entity")
	}
	return requireAffected(res, errors.NewNotFoundf(errors.ErrEntityNotFound, "entity %d", id))
}

// PurgeEntity irreversibly removes an entity and its values.
func (s *Store) PurgeEntity(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin purge entity")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM attribute_values WHERE entity_id = ?`, id); err != nil {
		return errors.Wrap(err, "purge entity values")
	}
	res, err := tx.Exec(`DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "purge entity")
	}
	if err := requireAffected(res, errors.NewNotFoundf(errors.ErrEntityNotFound, "entity %d", id)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit purge entity")
	}

	if s.logger != nil {
		s.logger.Infow("Entity purged", "entity_id", id)
	}
	return nil
}

func (s *Store) getEntityWhere(where string, notFound error, args ...interface{}) (*Entity, error) {
	row := s.db.QueryRow(`SELECT `+entitySelectColumns+` FROM entities WHERE `+where, args...)
	e, err := scanEntity(row)
	if err == sql.ErrNoRows {
		return nil, notFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "scan entity")
	}

	e.Values, err = s.entityValues(e.ID)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// entityValues loads an entity's value rows in creation order, which is the
// effective-template order captured when the entity was created.
func (s *Store) entityValues(entityID int64) ([]AttributeValue, error) {
	rows, err := s.db.Query(valueSelectQuery, entityID)
	if err != nil {
		return nil, errors.Wrap(err, "query entity values")
	}
	defer rows.Close()

	var values []AttributeValue
	for rows.Next() {
		var (
			v         AttributeValue
			vt        string
			updatedAt sql.NullTime
		)
		if err := rows.Scan(&v.ID, &v.EntityID, &v.TemplateID, &v.TemplateName, &vt, &v.Value, &v.CreatedAt, &updatedAt); err != nil {
			return nil, errors.Wrap(err, "scan entity value")
		}
		v.Type = ValueType(vt)
		v.UpdatedAt = nullableTime(updatedAt)
		values = append(values, v)
	}
	return values, rows.Err()
}

// valueOptions loads a template's single-select options for validation.
// Deleted templates still return their options: the snapshotted value
// outlives the declaration and keeps validating against it.
func (s *Store) valueOptions(templateID int64) ([]string, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT options FROM attribute_templates WHERE id = ?`, templateID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "load template options")
	}
	return unmarshalOptions(raw)
}

// checkEntityRef verifies an entity-reference value points at a visible
// entity, by id or slug.
func (s *Store) checkEntityRef(ref string) error {
	if _, err := s.ResolveEntity(ref); err != nil {
		if errors.Is(err, errors.ErrEntityNotFound) {
			return errors.NewInvalidValuef("entity reference %q does not resolve", ref)
		}
		return err
	}
	return nil
}

func (s *Store) entityVisible(id int64) error {
	var exists bool
	if err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM entities WHERE id = ? AND deleted = 0)`, id,
	).Scan(&exists); err != nil {
		return errors.Wrap(err, "check entity")
	}
	if !exists {
		return errors.NewNotFoundf(errors.ErrEntityNotFound, "entity %d", id)
	}
	return nil
}

func scanEntity(row rowScanner) (*Entity, error) {
	var (
		e         Entity
		deleted   int
		deletedAt sql.NullTime
	)
	err := row.Scan(&e.ID, &e.Name, &e.Slug, &e.FolderID, &e.SpecialKind, &deleted, &deletedAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Deleted = deleted == 1
	e.DeletedAt = nullableTime(deletedAt)
	return &e, nil
}
