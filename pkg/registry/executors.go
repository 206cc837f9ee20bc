package registry

import (
	"github.com/cadencehq/cadence/pkg/executors/ai"
	"github.com/cadencehq/cadence/pkg/executors/httprequest"
	logexecutor "github.com/cadencehq/cadence/pkg/executors/log"
	"github.com/cadencehq/cadence/pkg/executors/wait"
	"github.com/cadencehq/cadence/pkg/knowledge"
	"github.com/cadencehq/cadence/pkg/models"
)

// RegisterDefaultExecutors registers the built-in executor factories. The
// completion client may be nil when the deployment has no generative backend;
// ai_generate actions then fail at creation instead of at dispatch.
func (r *Registry) RegisterDefaultExecutors(completionClient ai.CompletionClient) {
	// Outbound channels recorded as structured logs.
	for _, actionType := range []models.ActionType{
		models.ActionSendEmail,
		models.ActionSendSMS,
		models.ActionUpdateCRM,
		models.ActionAssignOwner,
		models.ActionSendForm,
		models.ActionEnrich,
	} {
		r.RegisterExecutor(logexecutor.NewFactory(actionType))
	}

	r.RegisterExecutor(httprequest.NewFactory())
	r.RegisterExecutor(wait.NewFactory())
	r.RegisterExecutor(ai.NewFactory(completionClient, knowledge.NewResolver(r.logger)))
}
