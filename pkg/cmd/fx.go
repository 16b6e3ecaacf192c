package cmd

import "go.uber.org/fx"

var Module = fx.Module("cli",
	fx.Provide(
		fx.Annotate(extract, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(lint, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
