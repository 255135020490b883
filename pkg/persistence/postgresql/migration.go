package postgresql

// migrations returns the ordered schema migrations for the PostgreSQL
// persistence. Keys are versions; each value runs inside one transaction.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS workflow_definitions (
				id VARCHAR(255) PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL DEFAULT 'draft',
				version INTEGER NOT NULL DEFAULT 1,
				group_id VARCHAR(255) NOT NULL,
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_definitions_tenant ON workflow_definitions(tenant_id);
			CREATE INDEX IF NOT EXISTS idx_definitions_status ON workflow_definitions(status);
			CREATE INDEX IF NOT EXISTS idx_definitions_group ON workflow_definitions(group_id);
		`,
		2: `
			CREATE TABLE IF NOT EXISTS workflow_runs (
				id VARCHAR(255) PRIMARY KEY,
				definition_id VARCHAR(255) NOT NULL,
				definition_version INTEGER NOT NULL,
				tenant_id VARCHAR(255) NOT NULL,
				origin VARCHAR(50) NOT NULL,
				trigger_event_id VARCHAR(255) NOT NULL DEFAULT '',
				trigger_node_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				outcomes JSONB NOT NULL DEFAULT '[]',
				failure_cause TEXT NOT NULL DEFAULT '',
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX IF NOT EXISTS idx_runs_definition ON workflow_runs(definition_id);
			CREATE INDEX IF NOT EXISTS idx_runs_status ON workflow_runs(status);
		`,
		3: `
			CREATE TABLE IF NOT EXISTS continuations (
				run_id VARCHAR(255) NOT NULL,
				node_id VARCHAR(255) NOT NULL,
				definition_id VARCHAR(255) NOT NULL,
				fire_at TIMESTAMP WITH TIME ZONE NOT NULL,
				degraded BOOLEAN NOT NULL DEFAULT FALSE,
				PRIMARY KEY (run_id, node_id)
			);

			CREATE INDEX IF NOT EXISTS idx_continuations_fire_at ON continuations(fire_at);
		`,
		4: `
			CREATE TABLE IF NOT EXISTS processed_events (
				event_id VARCHAR(255) PRIMARY KEY,
				processed_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
		`,
		5: `
			ALTER TABLE workflow_runs ADD COLUMN IF NOT EXISTS trigger_event JSONB;
		`,
	}
}
