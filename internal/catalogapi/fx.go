package catalogapi

import (
	"github.com/smallbiznis/catalogadmin/internal/product/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("catalogapi",
	fx.Provide(New),
	fx.Provide(func(c *Client) domain.Repository { return c }),
)
