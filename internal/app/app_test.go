package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"auditline/internal/config"
	"auditline/internal/logging"
)

type AppSuite struct {
	suite.Suite
	workspace string
}

func (s *AppSuite) SetupTest() {
	s.workspace = s.T().TempDir()
}

func (s *AppSuite) TestOpenWithDefaults() {
	a, err := Open(context.Background(), s.workspace, logging.Discard())
	s.Require().NoError(err)
	defer a.Close()

	s.Equal("Europe/Kiev", a.Config.Service.Timezone)
	s.NotNil(a.Engine.Tenders)
	s.True(a.Calendar.IsHoliday(time.Date(2018, 1, 1, 12, 0, 0, 0, time.UTC)))

	families, err := a.Registry.Gather()
	s.Require().NoError(err)
	s.NotEmpty(families)
}

func (s *AppSuite) TestCalendarFileRelativeToWorkspace() {
	s.Require().NoError(os.WriteFile(filepath.Join(s.workspace, "days.yml"), []byte("version: test\ndays:\n  \"2018-01-03\": true\n"), 0o644))
	cfg := config.Default()
	cfg.Calendar.File = "days.yml"

	cal, err := LoadCalendar(s.workspace, cfg)
	s.Require().NoError(err)
	s.Equal("test", cal.Version())
	s.True(cal.IsHoliday(time.Date(2018, 1, 3, 12, 0, 0, 0, time.UTC)))
	s.False(cal.IsHoliday(time.Date(2018, 1, 1, 12, 0, 0, 0, time.UTC)))
}

func (s *AppSuite) TestSignerFromSeed() {
	cfg := config.Default()
	cfg.DocService.KeySeed = strings.Repeat("00", 32)
	a, err := NewSigner(cfg)
	s.Require().NoError(err)
	b, err := NewSigner(cfg)
	s.Require().NoError(err)
	s.Equal(a.KeyID(), b.KeyID())

	cfg.DocService.KeySeed = "zz"
	_, err = NewSigner(cfg)
	s.Error(err)
}

func (s *AppSuite) TestNoTendersClientWithoutURL() {
	cfg := config.Default()
	cfg.Tenders.URL = ""
	a, err := OpenWithConfig(context.Background(), s.workspace, cfg, logging.Discard())
	s.Require().NoError(err)
	defer a.Close()
	s.Nil(a.Engine.Tenders)
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}
