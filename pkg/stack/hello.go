// Package stack holds the concrete topology this program provisions.
package stack

import (
	"github.com/linecard/hellocdk/pkg/topology"
)

const (
	Name = "HelloCdkStack"

	FunctionName   = "myCDKFunction"
	ApiName        = "myCDKAPI"
	BucketName     = "WebsiteBucket"
	DeploymentName = "DeployWebsite"

	Runtime    = "nodejs20.x"
	EntryPoint = "index.handler"

	LambdaBundle  = "resources/lambda"
	WebsiteBundle = "resources/website"
)

// Hello declares the demo stack under the given stack name. Asset paths are
// resolved against root.
func Hello(name, root string) (*topology.Graph, error) {
	if name == "" {
		name = Name
	}

	backend := topology.ComputeUnit{
		Name:       FunctionName,
		Runtime:    Runtime,
		EntryPoint: EntryPoint,
		CodeBundle: LambdaBundle,
	}.Grant([]string{"ses:*"}, []string{"*"})

	api := topology.ApiFrontDoor{Name: ApiName}

	website := topology.StorageBucket{
		Name:            BucketName,
		DefaultDocument: "index.html",
		PublicRead:      true,
	}

	return topology.New(name, root).Add(
		backend,
		api,
		api.Route("POST", "/", backend),
		website,
		website.Deploy(DeploymentName, WebsiteBundle),
	).Build()
}
