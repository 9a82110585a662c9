package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// FindDailyByFileID looks up the daily granule for a fileId, including its
// files dependency list. Returns ErrNotFound if none exists.
func (s *Store) FindDailyByFileID(fileID string) (*DailyGranule, error) {
	row, err := s.queryItHook(s.db, `SELECT stream_id, file_id, net, sta, loc, cha, qlt, ts, te, enc, srate,
		rlen, nrec, nsam, smin, smax, smean, smedian, supper, slower, rms, stdev,
		ngaps, glen, nover, olen, gmax, omax, avail, sgap, egap, nseg, cont,
		io_flags, dq_flags, ac_flags, timing_quality, warnings, status, format, type, created, collector
		FROM daily_granules WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, fmt.Errorf("catalog: find daily by fileId: %w", err)
	}
	defer row.Close()
	if !row.Next() {
		return nil, ErrNotFound
	}
	g, err := scanDaily(row)
	if err != nil {
		return nil, err
	}
	g.Files, err = s.filesForDaily(g.StreamID)
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Store) filesForDaily(streamID string) ([]FileRef, error) {
	row, err := s.queryItHook(s.db, `SELECT name, chksm, do_id FROM daily_files WHERE daily_stream_id = ?`, streamID)
	if err != nil {
		return nil, fmt.Errorf("catalog: files for daily: %w", err)
	}
	defer row.Close()
	var files []FileRef
	for row.Next() {
		var f FileRef
		var do sql.NullString
		if err := row.Scan(&f.Name, &f.Chksm, &do); err != nil {
			return nil, fmt.Errorf("catalog: scan file ref: %w", err)
		}
		if do.Valid {
			f.DO = &do.String
		}
		files = append(files, f)
	}
	return files, row.Err()
}

func scanDaily(row rowScanner) (*DailyGranule, error) {
	var g DailyGranule
	var glen, olen, gmax, omax sql.NullFloat64
	var ioFlags, dqFlags, acFlags, timing sql.NullString
	var sgap, egap, cont, warnings int
	var collectorJSON string
	err := row.Scan(&g.StreamID, &g.FileID, &g.Net, &g.Sta, &g.Loc, &g.Cha, &g.Qlt, &g.TS, &g.TE, &g.Enc, &g.Srate,
		&g.Rlen, &g.Nrec, &g.Nsam, &g.Smin, &g.Smax, &g.Smean, &g.Smedian, &g.Supper, &g.Slower, &g.Rms, &g.Stdev,
		&g.Ngaps, &glen, &g.Nover, &olen, &gmax, &omax, &g.Avail, &sgap, &egap, &g.Nseg, &cont,
		&ioFlags, &dqFlags, &acFlags, &timing, &warnings, &g.Status, &g.Format, &g.Type, &g.Created, &collectorJSON)
	if err != nil {
		return nil, fmt.Errorf("catalog: scan daily granule: %w", err)
	}
	g.Glen = nullFloatPtr(glen)
	g.Olen = nullFloatPtr(olen)
	g.Gmax = nullFloatPtr(gmax)
	g.Omax = nullFloatPtr(omax)
	g.Sgap = sgap != 0
	g.Egap = egap != 0
	g.Cont = cont != 0
	g.Warnings = warnings != 0
	if err := unmarshalOptional(ioFlags, &g.IO); err != nil {
		return nil, err
	}
	if err := unmarshalOptional(dqFlags, &g.DQ); err != nil {
		return nil, err
	}
	if err := unmarshalOptional(acFlags, &g.AC); err != nil {
		return nil, err
	}
	if err := unmarshalOptional(timing, &g.Timing); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(collectorJSON), &g.Collector); err != nil {
		return nil, fmt.Errorf("catalog: unmarshal collector: %w", err)
	}
	return &g, nil
}

// ChecksumsForName returns every stored chksm recorded under basename
// across all daily_files entries (the file may appear as its own daily's
// self-entry and as a neighbour entry of adjacent dailies).
func (s *Store) ChecksumsForName(basename string) ([]string, error) {
	row, err := s.queryItHook(s.db, `SELECT chksm FROM daily_files WHERE name = ?`, basename)
	if err != nil {
		return nil, fmt.Errorf("catalog: checksums for name: %w", err)
	}
	defer row.Close()
	var sums []string
	for row.Next() {
		var c string
		if err := row.Scan(&c); err != nil {
			return nil, fmt.Errorf("catalog: scan checksum: %w", err)
		}
		sums = append(sums, c)
	}
	return sums, row.Err()
}

// FindGranulesReferencingFile implements the Dependency Resolver lookup:
// every daily granule whose files list names basename.
func (s *Store) FindGranulesReferencingFile(basename string) ([]string, error) {
	row, err := s.queryItHook(s.db, `SELECT DISTINCT daily_stream_id FROM daily_files WHERE name = ?`, basename)
	if err != nil {
		return nil, fmt.Errorf("catalog: find granules referencing file: %w", err)
	}
	defer row.Close()
	var ids []string
	for row.Next() {
		var id string
		if err := row.Scan(&id); err != nil {
			return nil, fmt.Errorf("catalog: scan stream id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, row.Err()
}

// FileIDForStream returns the fileId of a daily granule by its streamId.
func (s *Store) FileIDForStream(streamID string) (string, error) {
	row, err := s.queryItHook(s.db, `SELECT file_id FROM daily_granules WHERE stream_id = ?`, streamID)
	if err != nil {
		return "", fmt.Errorf("catalog: file id for stream: %w", err)
	}
	defer row.Close()
	if !row.Next() {
		return "", ErrNotFound
	}
	var fileID string
	if err := row.Scan(&fileID); err != nil {
		return "", fmt.Errorf("catalog: scan file id: %w", err)
	}
	return fileID, nil
}

// InsertDailyGranule inserts a daily granule and its files list, returning
// the newly minted streamId. It re-checks is-new immediately before
// insert (the §4.I guard) unless AllowDouble is set.
func (s *Store) InsertDailyGranule(g DailyGranule) (string, error) {
	if !s.cfg.AllowDouble {
		if _, err := s.FindDailyByFileID(g.FileID); err == nil {
			return "", fmt.Errorf("%w: %s", ErrAlreadyExists, g.FileID)
		} else if err != ErrNotFound {
			return "", err
		}
	}

	g.StreamID = newID()
	ioJSON, err := marshalOptional(g.IO)
	if err != nil {
		return "", err
	}
	dqJSON, err := marshalOptional(g.DQ)
	if err != nil {
		return "", err
	}
	acJSON, err := marshalOptional(g.AC)
	if err != nil {
		return "", err
	}
	timingJSON, err := marshalOptional(g.Timing)
	if err != nil {
		return "", err
	}
	collectorJSON, err := json.Marshal(g.Collector)
	if err != nil {
		return "", fmt.Errorf("catalog: marshal collector: %w", err)
	}

	tx, err := s.beginTxHook()
	if err != nil {
		return "", fmt.Errorf("catalog: begin tx: %w", err)
	}
	_, err = s.execHook(tx, `INSERT INTO daily_granules (
		stream_id, file_id, net, sta, loc, cha, qlt, ts, te, enc, srate, rlen, nrec, nsam,
		smin, smax, smean, smedian, supper, slower, rms, stdev,
		ngaps, glen, nover, olen, gmax, omax, avail, sgap, egap, nseg, cont,
		io_flags, dq_flags, ac_flags, timing_quality, warnings, status, format, type, created, collector
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		g.StreamID, g.FileID, g.Net, g.Sta, g.Loc, g.Cha, g.Qlt, g.TS, g.TE, g.Enc, g.Srate, g.Rlen, g.Nrec, g.Nsam,
		g.Smin, g.Smax, g.Smean, g.Smedian, g.Supper, g.Slower, g.Rms, g.Stdev,
		g.Ngaps, g.Glen, g.Nover, g.Olen, g.Gmax, g.Omax, g.Avail, boolToInt(g.Sgap), boolToInt(g.Egap), g.Nseg, boolToInt(g.Cont),
		ioJSON, dqJSON, acJSON, timingJSON, boolToInt(g.Warnings), g.Status, g.Format, g.Type, g.Created, string(collectorJSON))
	if err != nil {
		tx.Rollback()
		return "", fmt.Errorf("catalog: insert daily granule: %w", err)
	}
	for _, f := range g.Files {
		if _, err := s.execHook(tx, `INSERT INTO daily_files (daily_stream_id, name, chksm, do_id) VALUES (?,?,?,?)`, g.StreamID, f.Name, f.Chksm, f.DO); err != nil {
			tx.Rollback()
			return "", fmt.Errorf("catalog: insert file ref: %w", err)
		}
	}
	if err := s.commitHook(tx); err != nil {
		return "", fmt.Errorf("catalog: commit daily granule: %w", err)
	}
	return g.StreamID, nil
}

// InsertHourlyGranule inserts an hourly granule. The parent daily must
// already exist (enforced by the foreign key).
func (s *Store) InsertHourlyGranule(h HourlyGranule) error {
	ioJSON, err := marshalOptional(h.IO)
	if err != nil {
		return err
	}
	dqJSON, err := marshalOptional(h.DQ)
	if err != nil {
		return err
	}
	acJSON, err := marshalOptional(h.AC)
	if err != nil {
		return err
	}
	timingJSON, err := marshalOptional(h.Timing)
	if err != nil {
		return err
	}
	_, err = s.execHook(s.db, `INSERT INTO hourly_granules (
		id, stream_id, file_id, net, sta, loc, cha, qlt, ts, te, enc, srate, rlen, nrec, nsam,
		smin, smax, smean, smedian, supper, slower, rms, stdev,
		ngaps, glen, nover, olen, gmax, omax, avail, sgap, egap, nseg, cont,
		io_flags, dq_flags, ac_flags, timing_quality, warnings, status, format, type, created
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		newID(), h.StreamID, h.FileID, h.Net, h.Sta, h.Loc, h.Cha, h.Qlt, h.TS, h.TE, h.Enc, h.Srate, h.Rlen, h.Nrec, h.Nsam,
		h.Smin, h.Smax, h.Smean, h.Smedian, h.Supper, h.Slower, h.Rms, h.Stdev,
		h.Ngaps, h.Glen, h.Nover, h.Olen, h.Gmax, h.Omax, h.Avail, boolToInt(h.Sgap), boolToInt(h.Egap), h.Nseg, boolToInt(h.Cont),
		ioJSON, dqJSON, acJSON, timingJSON, boolToInt(h.Warnings), h.Status, h.Format, h.Type, h.Created)
	if err != nil {
		return fmt.Errorf("catalog: insert hourly granule: %w", err)
	}
	return nil
}

// InsertContinuousSegment inserts a continuous segment. The parent daily
// must already exist and (by convention) have cont == false.
func (s *Store) InsertContinuousSegment(c ContinuousSegment) error {
	_, err := s.execHook(s.db, `INSERT INTO continuous_segments (
		id, stream_id, net, sta, loc, cha, smin, smax, smean, smedian, supper, slower, rms, stdev, ts, te, seglen
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		newID(), c.StreamID, c.Net, c.Sta, c.Loc, c.Cha, c.Smin, c.Smax, c.Smean, c.Smedian, c.Supper, c.Slower, c.Rms, c.Stdev, c.TS, c.TE, c.Seglen)
	if err != nil {
		return fmt.Errorf("catalog: insert continuous segment: %w", err)
	}
	return nil
}

// InsertPSDSpectrum inserts one half-hour PSD document.
func (s *Store) InsertPSDSpectrum(p PSDSpectrum) error {
	_, err := s.execHook(s.db, `INSERT INTO psd_spectra (id, file_id, net, sta, loc, cha, ts, te, warnings, binary)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		newID(), p.FileID, p.Net, p.Sta, p.Loc, p.Cha, p.TS, p.TE, boolToInt(p.Warnings), p.Binary)
	if err != nil {
		return fmt.Errorf("catalog: insert psd spectrum: %w", err)
	}
	return nil
}

// HasPSDForFile reports whether PSD spectra already exist for fileID, the
// PSD pipeline's independent "already processed" guard.
func (s *Store) HasPSDForFile(fileID string) (bool, error) {
	row, err := s.queryItHook(s.db, `SELECT 1 FROM psd_spectra WHERE file_id = ? LIMIT 1`, fileID)
	if err != nil {
		return false, fmt.Errorf("catalog: has psd for file: %w", err)
	}
	defer row.Close()
	return row.Next(), row.Err()
}

// DeleteByStreamID removes the daily granule and, as a single logical
// operation, every hourly granule and continuous segment referencing that
// streamId (via ON DELETE CASCADE foreign keys).
func (s *Store) DeleteByStreamID(streamID string) error {
	_, err := s.execHook(s.db, `DELETE FROM daily_granules WHERE stream_id = ?`, streamID)
	if err != nil {
		return fmt.Errorf("catalog: delete by stream id: %w", err)
	}
	return nil
}

// DeletePSDByFileID removes every PSD spectrum recorded for fileID.
// psd_spectra is keyed by fileId rather than the daily granule's streamId,
// so this is not covered by DeleteByStreamID's cascade: the change-flow
// and delete-flow cascades call it explicitly before a file's PSD is
// reprocessed or its granule is dropped for good.
func (s *Store) DeletePSDByFileID(fileID string) error {
	_, err := s.execHook(s.db, `DELETE FROM psd_spectra WHERE file_id = ?`, fileID)
	if err != nil {
		return fmt.Errorf("catalog: delete psd by file id: %w", err)
	}
	return nil
}

// FindDataObject looks up the deduplicated data object for a fileId.
func (s *Store) FindDataObject(fileID string) (*DataObject, error) {
	row, err := s.queryItHook(s.db, `SELECT id, file_id, created FROM data_objects WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, fmt.Errorf("catalog: find data object: %w", err)
	}
	defer row.Close()
	if !row.Next() {
		return nil, ErrNotFound
	}
	var d DataObject
	if err := row.Scan(&d.ID, &d.FileID, &d.Created); err != nil {
		return nil, fmt.Errorf("catalog: scan data object: %w", err)
	}
	return &d, nil
}

// InsertDataObject creates (or, under a concurrent race, adopts) the data
// object for a fileId via INSERT OR IGNORE followed by a re-SELECT, per
// the dedup-race decision in DESIGN.md.
func (s *Store) InsertDataObject(d DataObject) (*DataObject, error) {
	if d.ID == "" {
		d.ID = newID()
	}
	_, err := s.execHook(s.db, `INSERT OR IGNORE INTO data_objects (id, file_id, created) VALUES (?,?,?)`, d.ID, d.FileID, d.Created)
	if err != nil {
		return nil, fmt.Errorf("catalog: insert data object: %w", err)
	}
	return s.FindDataObject(d.FileID)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func marshalOptional(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch vv := v.(type) {
	case *IOClockFlags:
		if vv == nil {
			return nil, nil
		}
	case *DataQualityFlags:
		if vv == nil {
			return nil, nil
		}
	case *ActivityFlags:
		if vv == nil {
			return nil, nil
		}
	case *TimingQuality:
		if vv == nil {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("catalog: marshal optional field: %w", err)
	}
	return string(data), nil
}

func unmarshalOptional(ns sql.NullString, dest any) error {
	if !ns.Valid {
		return nil
	}
	if err := json.Unmarshal([]byte(ns.String), dest); err != nil {
		return fmt.Errorf("catalog: unmarshal optional field: %w", err)
	}
	return nil
}

func nullFloatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
