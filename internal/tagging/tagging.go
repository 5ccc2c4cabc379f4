// Package tagging stores gallery tags and favourites in a BoltDB database.
// Items are keyed by their content id, so tags follow a file across renames.
package tagging

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	dbFileName        = "fygallery_tags.db"
	ItemsToTagsBucket = "ItemsToTags" // item id -> tags
	TagsToItemsBucket = "TagsToItems" // tag -> item ids
	FavoritesBucket   = "Favorites"   // item id -> time it was starred
)

// ErrEmptyArgument is returned when an id or tag is empty.
var ErrEmptyArgument = errors.New("tagging: id and tag cannot be empty")

// LoggerFunc defines a function signature for logging messages.
type LoggerFunc func(message string)

// TagDB manages the tagging database.
type TagDB struct {
	db     *bolt.DB
	logger LoggerFunc
}

// TagWithCount holds a tag name and the number of items carrying it.
type TagWithCount struct {
	Name  string
	Count int
}

// DefaultDir returns the per-user directory the database lives in, creating
// it if needed.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".", fmt.Errorf("could not get user config dir: %w", err)
	}
	appConfigDir := filepath.Join(configDir, "fygallery")
	if err := os.MkdirAll(appConfigDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", appConfigDir, err)
	}
	return appConfigDir, nil
}

// NewTagDB creates or opens the tag database in dbDir. An empty dbDir
// means DefaultDir.
func NewTagDB(dbDir string, logger LoggerFunc) (*TagDB, error) {
	if dbDir == "" {
		dir, err := DefaultDir()
		if err != nil && dir == "" {
			return nil, err
		}
		if err != nil {
			log.Printf("Warning: %v. Using current dir.", err)
		}
		dbDir = dir
	}

	dbPath := filepath.Join(dbDir, dbFileName)
	tdb := &TagDB{logger: logger}
	tdb.logMessage("Using tag database at: %s", dbPath)

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open tag database %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{ItemsToTagsBucket, TagsToItemsBucket, FavoritesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	tdb.db = db
	return tdb, nil
}

func (tdb *TagDB) logMessage(format string, args ...interface{}) {
	if tdb.logger != nil {
		tdb.logger(fmt.Sprintf(format, args...))
	} else {
		log.Printf(format, args...)
	}
}

// Close closes the database connection.
func (tdb *TagDB) Close() error {
	if tdb.db != nil {
		return tdb.db.Close()
	}
	return nil
}

// --- Helper Functions ---

func encodeList(list []string) ([]byte, error) {
	return json.Marshal(list)
}

func decodeList(data []byte) ([]string, error) {
	var list []string
	if data == nil {
		return []string{}, nil
	}
	err := json.Unmarshal(data, &list)
	return list, err
}

// addToList appends item unless it is already present. Returns true if added.
func addToList(list []string, item string) ([]string, bool) {
	for _, existing := range list {
		if existing == item {
			return list, false
		}
	}
	return append(list, item), true
}

func removeFromList(list []string, item string) []string {
	newList := list[:0]
	for _, existing := range list {
		if existing != item {
			newList = append(newList, existing)
		}
	}
	return newList
}

// updateStoredList adds or removes item in the JSON list stored under key.
// A list emptied by removal is deleted. Returns true if the list changed.
func updateStoredList(tx *bolt.Tx, bucketName string, key string, item string, add bool) (bool, error) {
	bucket := tx.Bucket([]byte(bucketName))
	if bucket == nil {
		return false, fmt.Errorf("bucket %s not found", bucketName)
	}

	currentList, err := decodeList(bucket.Get([]byte(key)))
	if err != nil {
		return false, fmt.Errorf("failed to decode list for key '%s' in bucket '%s': %w", key, bucketName, err)
	}

	var updatedList []string
	var changed bool
	if add {
		updatedList, changed = addToList(currentList, item)
	} else {
		originalLength := len(currentList)
		updatedList = removeFromList(currentList, item)
		changed = len(updatedList) != originalLength
	}
	if !changed {
		return false, nil
	}

	if !add && len(updatedList) == 0 {
		if err := bucket.Delete([]byte(key)); err != nil {
			return true, fmt.Errorf("failed to delete empty list for key '%s' in bucket '%s': %w", key, bucketName, err)
		}
		return true, nil
	}
	data, err := encodeList(updatedList)
	if err != nil {
		return true, fmt.Errorf("failed to encode list for key '%s' in bucket '%s': %w", key, bucketName, err)
	}
	if err := bucket.Put([]byte(key), data); err != nil {
		return true, fmt.Errorf("failed to put list for key '%s' in bucket '%s': %w", key, bucketName, err)
	}
	return true, nil
}

// link updates both directions of an id/tag association.
func link(tx *bolt.Tx, id, tag string, add bool) error {
	if _, err := updateStoredList(tx, ItemsToTagsBucket, id, tag, add); err != nil {
		return fmt.Errorf("updating item->tags for '%s' with tag '%s': %w", id, tag, err)
	}
	if _, err := updateStoredList(tx, TagsToItemsBucket, tag, id, add); err != nil {
		return fmt.Errorf("updating tag->items for '%s' with item '%s': %w", tag, id, err)
	}
	return nil
}

// --- Tags ---

// AddTag associates a tag with an item.
func (tdb *TagDB) AddTag(id string, tag string) error {
	if id == "" || tag == "" {
		return ErrEmptyArgument
	}
	return tdb.db.Update(func(tx *bolt.Tx) error {
		return link(tx, id, tag, true)
	})
}

// AddTagsToItems associates every tag with every id in one transaction.
// Empty ids and tags are skipped.
func (tdb *TagDB) AddTagsToItems(ids []string, tags []string) error {
	if len(ids) == 0 || len(tags) == 0 {
		return ErrEmptyArgument
	}
	return tdb.db.Update(func(tx *bolt.Tx) error {
		for _, id := range ids {
			if id == "" {
				continue
			}
			for _, tag := range tags {
				if tag == "" {
					continue
				}
				if err := link(tx, id, tag, true); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// RemoveTag disassociates a tag from an item.
func (tdb *TagDB) RemoveTag(id string, tag string) error {
	if id == "" || tag == "" {
		return ErrEmptyArgument
	}
	return tdb.db.Update(func(tx *bolt.Tx) error {
		return link(tx, id, tag, false)
	})
}

func (tdb *TagDB) getList(bucketName, key string) ([]string, error) {
	var list []string
	err := tdb.db.View(func(tx *bolt.Tx) error {
		var err error
		list, err = decodeList(tx.Bucket([]byte(bucketName)).Get([]byte(key)))
		if err != nil {
			return fmt.Errorf("failed to decode %s entry %s: %w", bucketName, key, err)
		}
		return nil
	})
	sort.Strings(list)
	return list, err
}

// GetTags retrieves all tags of an item, sorted.
func (tdb *TagDB) GetTags(id string) ([]string, error) {
	return tdb.getList(ItemsToTagsBucket, id)
}

// GetItems retrieves all item ids carrying a tag, sorted.
func (tdb *TagDB) GetItems(tag string) ([]string, error) {
	return tdb.getList(TagsToItemsBucket, tag)
}

// GetAllTags retrieves every tag with its item count, sorted by name.
func (tdb *TagDB) GetAllTags() ([]TagWithCount, error) {
	var allTagsInfo []TagWithCount
	err := tdb.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(TagsToItemsBucket)).ForEach(func(k, v []byte) error {
			items, err := decodeList(v)
			if err != nil {
				tdb.logMessage("Error decoding item list for tag '%s', skipping: %v", string(k), err)
				return nil
			}
			allTagsInfo = append(allTagsInfo, TagWithCount{Name: string(k), Count: len(items)})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(allTagsInfo, func(i, j int) bool {
		return allTagsInfo[i].Name < allTagsInfo[j].Name
	})
	return allTagsInfo, nil
}

func removeItem(tx *bolt.Tx, id string) error {
	itemBucket := tx.Bucket([]byte(ItemsToTagsBucket))
	if data := itemBucket.Get([]byte(id)); data != nil {
		tags, err := decodeList(data)
		if err != nil {
			return fmt.Errorf("failed to decode tags for item %s during cleanup: %w", id, err)
		}
		for _, tag := range tags {
			if _, err := updateStoredList(tx, TagsToItemsBucket, tag, id, false); err != nil {
				return fmt.Errorf("failed to remove item '%s' from tag '%s' during cleanup: %w", id, tag, err)
			}
		}
		if err := itemBucket.Delete([]byte(id)); err != nil {
			return fmt.Errorf("failed to delete item key %s: %w", id, err)
		}
	}
	if err := tx.Bucket([]byte(FavoritesBucket)).Delete([]byte(id)); err != nil {
		return fmt.Errorf("failed to delete favourite %s: %w", id, err)
	}
	return nil
}

// RemoveAllTagsForItem drops every tag and the favourite mark of an item.
func (tdb *TagDB) RemoveAllTagsForItem(id string) error {
	if id == "" {
		return ErrEmptyArgument
	}
	return tdb.db.Update(func(tx *bolt.Tx) error {
		return removeItem(tx, id)
	})
}

// DeleteOrphanedTagKey removes a tag key the caller knows has no items.
func (tdb *TagDB) DeleteOrphanedTagKey(tag string) error {
	if tag == "" {
		return ErrEmptyArgument
	}
	return tdb.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(TagsToItemsBucket)).Delete([]byte(tag)); err != nil {
			return fmt.Errorf("failed to delete orphaned tag key '%s': %w", tag, err)
		}
		return nil
	})
}

// Prune removes tags and favourites of every id not in live. It returns
// how many ids were dropped.
func (tdb *TagDB) Prune(live map[string]bool) (int, error) {
	removed := 0
	err := tdb.db.Update(func(tx *bolt.Tx) error {
		var stale []string
		collect := func(k, _ []byte) error {
			if !live[string(k)] {
				stale = append(stale, string(k))
			}
			return nil
		}
		if err := tx.Bucket([]byte(ItemsToTagsBucket)).ForEach(collect); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(FavoritesBucket)).ForEach(collect); err != nil {
			return err
		}
		seen := make(map[string]bool, len(stale))
		for _, id := range stale {
			if seen[id] {
				continue
			}
			seen[id] = true
			if err := removeItem(tx, id); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune tag database: %w", err)
	}
	if removed > 0 {
		tdb.logMessage("Pruned tags of %d missing items", removed)
	}
	return removed, nil
}

// --- Favourites ---

// SetFavorite marks or unmarks ids as favourites.
func (tdb *TagDB) SetFavorite(ids []string, on bool) error {
	stamp := []byte(time.Now().UTC().Format(time.RFC3339))
	return tdb.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(FavoritesBucket))
		for _, id := range ids {
			if id == "" {
				continue
			}
			var err error
			if on {
				if bucket.Get([]byte(id)) != nil {
					continue
				}
				err = bucket.Put([]byte(id), stamp)
			} else {
				err = bucket.Delete([]byte(id))
			}
			if err != nil {
				return fmt.Errorf("failed to update favourite %s: %w", id, err)
			}
		}
		return nil
	})
}

// ToggleFavorite stars every id if any of them is not yet a favourite,
// otherwise it unstars them all. It returns the resulting state.
func (tdb *TagDB) ToggleFavorite(ids []string) (bool, error) {
	if len(ids) == 0 {
		return false, ErrEmptyArgument
	}
	on := false
	err := tdb.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(FavoritesBucket))
		for _, id := range ids {
			if bucket.Get([]byte(id)) == nil {
				on = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return on, tdb.SetFavorite(ids, on)
}

// IsFavorite reports whether id is a favourite.
func (tdb *TagDB) IsFavorite(id string) (bool, error) {
	fav := false
	err := tdb.db.View(func(tx *bolt.Tx) error {
		fav = tx.Bucket([]byte(FavoritesBucket)).Get([]byte(id)) != nil
		return nil
	})
	return fav, err
}

// Favorites returns every favourite id, sorted.
func (tdb *TagDB) Favorites() ([]string, error) {
	var ids []string
	err := tdb.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(FavoritesBucket)).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list favourites: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
