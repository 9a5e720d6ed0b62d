package instance

// ImportResult summarises a merge of external records into the store.
type ImportResult struct {
	Added   int
	Updated int
	Skipped []SkippedRecord
}

// SkippedRecord is an external record that failed validation.
type SkippedRecord struct {
	Record ServiceInstance
	Err    error
}

// Loaded returns the number of records that reached the store.
func (r ImportResult) Loaded() int {
	return r.Added + r.Updated
}

// Import merges records into the store. A record matching an existing entry
// by (serviceName, hostName, httpPort) overwrites that entry's securePort,
// dataCenterInfoName, status and ipAddr; anything else is saved as new.
// Incoming ids are ignored.
func (s *Store) Import(records []ServiceInstance) ImportResult {
	var res ImportResult
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			res.Skipped = append(res.Skipped, SkippedRecord{Record: rec, Err: err})
			continue
		}

		existing, ok := s.FindByNameHostPort(rec.ServiceName, rec.HostName, rec.HTTPPort)
		if !ok {
			rec.ID = 0
			s.Save(rec)
			res.Added++
			continue
		}

		existing.SecurePort = rec.SecurePort
		existing.DataCenterInfoName = rec.DataCenterInfoName
		existing.Status = rec.Status
		existing.IPAddr = rec.IPAddr
		s.Save(existing)
		res.Updated++
	}
	return res
}
