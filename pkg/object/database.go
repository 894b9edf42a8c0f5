package object

// Database is the object-database façade: a primary Backend plus zero or
// more alternate backends searched in registration order after the
// primary comes up empty. Alternates are themselves read-only from this
// Database's point of view — writes always land in the primary.
type Database struct {
	primary    Backend
	alternates []Backend
}

// NewDatabase wraps a primary backend with no alternates.
func NewDatabase(primary Backend) *Database {
	return &Database{primary: primary}
}

// NewFileDatabase opens a FileBackend rooted at objectsDir and resolves
// its info/alternates chain, opening one FileBackend per alternate
// directory in dependency order.
func NewFileDatabase(objectsDir string) (*Database, error) {
	db := &Database{primary: NewFileBackend(objectsDir)}

	chain, err := resolveAlternateChain(objectsDir)
	if err != nil {
		return nil, err
	}
	for _, dir := range chain {
		db.alternates = append(db.alternates, NewFileBackend(dir))
	}
	return db, nil
}

// Alternates returns the backends searched after the primary, in order.
func (db *Database) Alternates() []Backend {
	out := make([]Backend, len(db.alternates))
	copy(out, db.alternates)
	return out
}

// AddAlternate registers an additional backend to search after the
// primary and any previously registered alternates.
func (db *Database) AddAlternate(b Backend) {
	db.alternates = append(db.alternates, b)
}

func (db *Database) backends() []Backend {
	all := make([]Backend, 0, 1+len(db.alternates))
	all = append(all, db.primary)
	return append(all, db.alternates...)
}

// Has reports whether id exists in the primary backend or any alternate.
func (db *Database) Has(id ObjectId) (bool, error) {
	for _, b := range db.backends() {
		ok, err := b.Has(id)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Open looks up id across the primary and alternates in order, returning
// MissingError if none of them have it.
func (db *Database) Open(id ObjectId, typeHint ObjectType) (Loader, error) {
	var lastErr error
	for _, b := range db.backends() {
		loader, err := b.Open(id, typeHint)
		if err == nil {
			return loader, nil
		}
		if _, ok := err.(*MissingError); ok {
			continue
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &MissingError{ID: id}
}

// Resolve returns every id across the primary and alternates matching the
// abbreviation, de-duplicated. Callers classify results by count: 0
// missing, 1 unique, 2+ AmbiguousError.
func (db *Database) Resolve(abbrev AbbreviatedId) ([]ObjectId, error) {
	seen := make(map[ObjectId]struct{})
	var out []ObjectId
	for _, b := range db.backends() {
		ids, err := b.Resolve(abbrev)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out, nil
}

// ResolveUnique resolves an abbreviation to exactly one id, surfacing
// MissingError or AmbiguousError otherwise.
func (db *Database) ResolveUnique(abbrev AbbreviatedId) (ObjectId, error) {
	ids, err := db.Resolve(abbrev)
	if err != nil {
		return ObjectId{}, err
	}
	switch len(ids) {
	case 0:
		return ObjectId{}, &MissingError{}
	case 1:
		return ids[0], nil
	default:
		return ObjectId{}, &AmbiguousError{Prefix: abbrev.String(), Candidates: ids}
	}
}

// NewInserter returns a staging handle bound to the primary backend.
// Objects are never written to alternates.
func (db *Database) NewInserter() Inserter {
	return db.primary.NewInserter()
}

// Close releases every backend this Database owns, primary and
// alternates alike, returning the first error encountered.
func (db *Database) Close() error {
	var firstErr error
	for _, b := range db.backends() {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
