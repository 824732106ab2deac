package infra

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// PGContainer wraps the throwaway Postgres backing an integration run. It is
// inert when the run reuses a shared database or a local server.
type PGContainer struct {
	C *postgres.PostgresContainer
}

// Provision resolves a Postgres for integration tests, in order of
// preference: the MZIGO_TEST_PG_DSN override, a fresh Docker container, then
// a recreated database on a locally running server. shared reports whether
// the database may be in use by other runs, so callers isolate their schema.
func Provision(ctx context.Context) (pgC *PGContainer, dsn string, shared bool, err error) {
	if dsn := os.Getenv("MZIGO_TEST_PG_DSN"); dsn != "" {
		return &PGContainer{}, dsn, true, nil
	}
	if dockerAvailable(ctx) {
		pgC, dsn, err := startContainer(ctx)
		return pgC, dsn, false, err
	}
	dsn, err = InitLocalDatabase(ctx)
	if err != nil {
		return nil, "", false, err
	}
	return &PGContainer{}, dsn, false, nil
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

func startContainer(ctx context.Context) (*PGContainer, string, error) {
	pgC, err := postgres.Run(ctx,
		"postgres:16",
		postgres.WithDatabase("mzigo_test"),
		postgres.WithUsername("mzigo"),
		postgres.WithPassword("mzigo"),
	)
	if err != nil {
		return nil, "", err
	}

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgC.Terminate(ctx)
		return nil, "", err
	}
	return &PGContainer{C: pgC}, dsn, nil
}

func (p *PGContainer) Terminate(ctx context.Context) error {
	if p == nil || p.C == nil {
		return nil
	}
	return p.C.Terminate(ctx)
}
