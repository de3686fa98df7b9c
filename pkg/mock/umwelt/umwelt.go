package mock

import (
	"github.com/linecard/hellocdk/internal/gitlib"
	"github.com/linecard/hellocdk/internal/umwelt"
)

func FromCwd(cwd string, gitMock gitlib.DotGit) umwelt.Here {
	return umwelt.Here{
		Root: umwelt.FindRoot(cwd, gitMock.Root),
		Caller: umwelt.ThisCaller{
			Id:      "user-123",
			Arn:     "arn:aws:iam::123456789012:user/test",
			Account: "123456789012",
			Region:  "us-west-2",
		},
		Git: gitMock,
	}
}
