package engine

import (
	"encoding/json"
	"fmt"

	"github.com/emberql/ember/buffer"
	"github.com/emberql/ember/storage"
	"github.com/emberql/ember/table"
)

// catalogPageID is the reserved page holding the database's table
// manifest. Table data pages start at id 1.
const catalogPageID = int32(0)

// tableManifest is one table's persisted shape: its schema and the list
// of pages holding its JSON-encoded records.
type tableManifest struct {
	Name    string          `json:"name"`
	Columns []table.Column  `json:"columns"`
	PageIDs []int32         `json:"page_ids"`
}

type catalog struct {
	Tables []tableManifest `json:"tables"`
}

// PersistDatabase snapshots every table's schema and record set into the
// buffer pool's pages: a catalog at page 0, followed by one or more data
// pages per table holding JSON-encoded rows. The caller is responsible
// for flushing the pool afterward (Engine.stop does this as part of
// shutdown). There is no WAL and no incremental persistence — this is
// the "flush on shutdown only" design the specification's crash-recovery
// open question left for the reimplementation to decide.
func PersistDatabase(pool *buffer.Pool, db *table.Database) error {
	catPage, err := pool.GetPage(catalogPageID)
	if err != nil {
		return fmt.Errorf("engine: load catalog page: %w", err)
	}
	if err := reserveCatalogPage(pool, catPage); err != nil {
		return err
	}

	cat := catalog{}
	nextPageID := int32(1)

	for _, tbl := range db.Tables() {
		manifest := tableManifest{Name: tbl.Name, Columns: tbl.Columns}

		page, err := pool.AllocatePage()
		if err != nil {
			return fmt.Errorf("engine: allocate page for table %q: %w", tbl.Name, err)
		}
		manifest.PageIDs = append(manifest.PageIDs, page.ID)
		nextPageID = page.ID + 1

		for _, rec := range tbl.FullScan() {
			row, err := json.Marshal(rec.Values)
			if err != nil {
				return fmt.Errorf("engine: encode record: %w", err)
			}
			if _, err := page.InsertRecord(row); err != nil {
				page, err = pool.AllocatePage()
				if err != nil {
					return fmt.Errorf("engine: allocate overflow page for table %q: %w", tbl.Name, err)
				}
				manifest.PageIDs = append(manifest.PageIDs, page.ID)
				nextPageID = page.ID + 1
				if _, err := page.InsertRecord(row); err != nil {
					return fmt.Errorf("engine: record too large for an empty page: %w", err)
				}
			}
		}
		cat.Tables = append(cat.Tables, manifest)
	}
	_ = nextPageID

	for catPage.RecordCount() > 0 {
		catPage.DeleteRecord(0)
	}
	body, err := json.Marshal(cat)
	if err != nil {
		return fmt.Errorf("engine: encode catalog: %w", err)
	}
	if _, err := catPage.InsertRecord(body); err != nil {
		return fmt.Errorf("engine: catalog does not fit in one page: %w", err)
	}
	return nil
}

// reserveCatalogPage guarantees page 0 is physically present in the
// database file before any table data page is allocated. AllocatePage
// derives a new page's id from the file's current length, so an empty,
// never-flushed catalog page sitting only in the buffer pool's cache
// would not stop the very first table page from also being handed id
// 0. Forcing one real write to page 0 up front closes that gap; it is
// a one-time cost paid only on a brand-new database file.
func reserveCatalogPage(pool *buffer.Pool, catPage *storage.Page) error {
	if catPage.RecordCount() > 0 {
		return nil
	}
	if _, err := catPage.InsertRecord([]byte("{}")); err != nil {
		return fmt.Errorf("engine: reserve catalog page: %w", err)
	}
	if err := pool.FlushPage(catalogPageID); err != nil {
		return fmt.Errorf("engine: reserve catalog page: %w", err)
	}
	catPage.DeleteRecord(0)
	return nil
}

// LoadDatabase reconstructs a Database from a previously persisted
// catalog, or returns a fresh empty Database named name if page 0 carries
// no catalog record (first run against a new data directory).
func LoadDatabase(pool *buffer.Pool, name string) (*table.Database, error) {
	catPage, err := pool.GetPage(catalogPageID)
	if err != nil {
		return nil, fmt.Errorf("engine: load catalog page: %w", err)
	}
	body, ok := catPage.ReadRecord(0)
	if !ok {
		return table.NewDatabase(name), nil
	}

	var cat catalog
	if err := json.Unmarshal(body, &cat); err != nil {
		return nil, fmt.Errorf("engine: decode catalog: %w", err)
	}

	db := table.NewDatabase(name)
	for _, manifest := range cat.Tables {
		tbl, err := table.New(manifest.Name, manifest.Columns)
		if err != nil {
			return nil, fmt.Errorf("engine: rebuild table %q: %w", manifest.Name, err)
		}
		for _, pageID := range manifest.PageIDs {
			page, err := pool.GetPage(pageID)
			if err != nil {
				return nil, fmt.Errorf("engine: load data page %d for table %q: %w", pageID, manifest.Name, err)
			}
			for slot := 0; ; slot++ {
				raw, ok := page.ReadRecord(slot)
				if !ok {
					break
				}
				var values map[string]string
				if err := json.Unmarshal(raw, &values); err != nil {
					return nil, fmt.Errorf("engine: decode record: %w", err)
				}
				if _, err := tbl.InsertRecord(values); err != nil {
					return nil, fmt.Errorf("engine: reinsert record for table %q: %w", manifest.Name, err)
				}
			}
		}
		if err := db.CreateTable(tbl); err != nil {
			return nil, err
		}
	}
	return db, nil
}
