package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE playbooks (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'active', 'archived')),
				trigger_config JSONB,
				actions JSONB NOT NULL DEFAULT '[]',
				knowledge_bindings JSONB NOT NULL DEFAULT '[]',
				metadata JSONB,
				owner VARCHAR(255),
				version BIGINT NOT NULL DEFAULT 1,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_playbooks_status ON playbooks(status);
			CREATE INDEX idx_playbooks_owner ON playbooks(owner);
			CREATE INDEX idx_playbooks_created_at ON playbooks(created_at);
			CREATE INDEX idx_playbooks_trigger_type ON playbooks((trigger_config->>'type'));
		`,
	}
}
