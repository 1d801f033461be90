package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/releasebot/pkg/domain/model"
	"gopkg.in/yaml.v3"
)

// ParseReleaseConf decodes and validates release-conf.yaml. Unknown keys are
// rejected so that typos do not silently disable a target.
func ParseReleaseConf(data []byte) (*model.ReleaseConf, error) {
	var conf model.ReleaseConf

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, goerr.Wrap(err, "failed to parse release configuration",
			goerr.T(model.ErrTagConfiguration))
	}

	if err := conf.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid release configuration",
			goerr.T(model.ErrTagConfiguration))
	}

	return &conf, nil
}

// loadReleaseConf fetches a fresh release policy snapshot for this cycle
func (o *Orchestrator) loadReleaseConf(ctx context.Context) (*model.ReleaseConf, error) {
	raw, err := o.hosting.Configuration(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch release configuration",
			goerr.T(model.ErrTagConfiguration))
	}

	conf, err := ParseReleaseConf(raw)
	if err != nil {
		return nil, err
	}

	ctxlog.From(ctx).Debug("Loaded release configuration",
		"trigger_on_issue", conf.TriggerOnIssue,
		"labels", conf.Labels,
		"pypi", conf.PyPIEnabled(),
		"fedora", conf.Fedora,
	)
	return conf, nil
}
