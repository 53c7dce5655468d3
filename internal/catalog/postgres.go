package catalog

import (
	"database/sql"

	_ "github.com/lib/pq"
)

func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

type PostgresCatalog struct {
	db *sql.DB
}

func (c *PostgresCatalog) Store(e Entry) error {
	_, err := c.db.Exec(
		`

		INSERT INTO downloads (
			remotePath,
			localPath,
			name,
			extension,
			contentType,
			sizeBytes,
			hashSumSHA512,
			downloadedTimestamp
		) VALUES (
			$1,
			$2,
			$3,
			$4,
			$5,
			$6,
			$7,
			$8
		)
		ON CONFLICT (localPath) DO UPDATE SET
			remotePath = EXCLUDED.remotePath,
			name = EXCLUDED.name,
			extension = EXCLUDED.extension,
			contentType = EXCLUDED.contentType,
			sizeBytes = EXCLUDED.sizeBytes,
			hashSumSHA512 = EXCLUDED.hashSumSHA512,
			downloadedTimestamp = EXCLUDED.downloadedTimestamp;
		`,
		e.RemotePath,
		e.LocalPath,
		e.Name,
		e.Extension,
		e.ContentType,
		e.SizeBytes,
		e.HashSumSHA512,
		e.DownloadedTimestamp,
	)
	if err != nil {
		return err
	}

	return nil
}

// Close is a no-op, the database handle is owned by the caller.
func (c *PostgresCatalog) Close() error {
	return nil
}
