package store

const insertAccessLog = `
INSERT INTO access_logs (
    badge_number, person_type, event_date, event_time, reader, terminal,
    event_type, direction, full_name, group_name, processed, raw_event_type,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// Names and department are refreshed only when the export carries them.
const upsertEmployee = `
INSERT INTO employees (
    badge_number, first_name, last_name, department, status, last_seen,
    created_at, updated_at
) VALUES ($1, $2, $3, $4, 'active', $5, $6, $6)
ON CONFLICT (badge_number) DO UPDATE SET
    first_name = COALESCE(EXCLUDED.first_name, employees.first_name),
    last_name  = COALESCE(EXCLUDED.last_name, employees.last_name),
    department = COALESCE(EXCLUDED.department, employees.department),
    last_seen  = GREATEST(employees.last_seen, EXCLUDED.last_seen),
    updated_at = EXCLUDED.updated_at`

const upsertVisitor = `
INSERT INTO visitors (
    badge_number, first_name, last_name, company, status, access_count,
    first_seen, last_seen, created_at, updated_at
) VALUES ($1, $2, $3, $4, 'active', 1, $5, $5, $6, $6)
ON CONFLICT (badge_number) DO UPDATE SET
    first_name   = COALESCE(EXCLUDED.first_name, visitors.first_name),
    last_name    = COALESCE(EXCLUDED.last_name, visitors.last_name),
    company      = COALESCE(EXCLUDED.company, visitors.company),
    access_count = visitors.access_count + 1,
    last_seen    = GREATEST(visitors.last_seen, EXCLUDED.last_seen),
    updated_at   = EXCLUDED.updated_at`

// Post-import reclassification. Only rows not yet marked processed are
// touched, so each import's hook sees just the rows it wrote plus any left
// over from an import whose hook failed.
const reclassifyVisitors = `
UPDATE access_logs SET person_type = 'visitor'
WHERE processed = false
  AND person_type <> 'visitor'
  AND (
        upper(badge_number) LIKE 'V-%'
     OR upper(badge_number) LIKE 'VIS-%'
     OR upper(badge_number) LIKE 'VISIT-%'
     OR lower(coalesce(group_name, '')) LIKE '%visiteur%'
     OR lower(coalesce(group_name, '')) LIKE '%visitor%'
     OR lower(coalesce(group_name, '')) LIKE '%extern%'
     OR lower(coalesce(group_name, '')) LIKE '%prestataire%'
  )`

const fillDirections = `
UPDATE access_logs SET direction = CASE
    WHEN event_type = 'exit'
      OR lower(coalesce(reader, '')) LIKE '%sortie%'
      OR lower(coalesce(reader, '')) LIKE '%exit%'
      OR lower(coalesce(reader, '')) LIKE '%out'
    THEN 'out'
    ELSE 'in'
END
WHERE processed = false
  AND (direction IS NULL OR direction = '')`

const markProcessed = `
UPDATE access_logs SET processed = true WHERE processed = false`

const insertActivity = `
INSERT INTO activity_logs (action, details, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5)`
