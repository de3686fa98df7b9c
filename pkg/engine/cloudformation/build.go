package cloudformation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/linecard/hellocdk/pkg/asset"
	"github.com/linecard/hellocdk/pkg/topology"
)

const (
	// AssetBucketParameter names the bucket staged assets are uploaded to
	// before the template is deployed.
	AssetBucketParameter = "AssetBucket"

	StageName = "prod"

	basicExecutionPolicy = "service-role/AWSLambdaBasicExecutionRole"
)

// Asset is a local directory staged next to the template as a zip.
type Asset struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Hash      string `json:"hash"`
	Packaging string `json:"packaging"`
	File      string `json:"file"`
}

// Deployment records a bucket sync the template itself cannot express.
type Deployment struct {
	ID          string `json:"id"`
	Asset       string `json:"asset"`
	Destination string `json:"destination"`
}

// Build maps g onto a template. Assets are hashed but not written.
func Build(g *topology.Graph, tags map[string]string) (*Template, []Asset, []Deployment, error) {
	b := &builder{
		graph:    g,
		template: newTemplate(fmt.Sprintf("%s synthesized from the declared topology", g.Name())),
		tags:     tags,
		assets:   make(map[string]Asset),
		methods:  make(map[string][]string),
	}

	for _, n := range g.Nodes() {
		var err error
		switch v := n.(type) {
		case topology.ComputeUnit:
			err = b.computeUnit(v)
		case topology.ApiFrontDoor:
			err = b.api(v)
		case topology.ApiRoute:
			err = b.route(v)
		case topology.StorageBucket:
			err = b.bucket(v)
		case topology.DeploymentStep:
			err = b.deployment(v)
		default:
			err = fmt.Errorf("no template mapping for %s", n.Kind())
		}
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s: %w", n.ID(), err)
		}
	}

	for _, api := range g.Apis() {
		if err := b.apiDeployment(api); err != nil {
			return nil, nil, nil, fmt.Errorf("%s: %w", api.ID(), err)
		}
	}

	if len(b.assets) > 0 {
		b.template.Parameters[AssetBucketParameter] = Parameter{
			Type:        "String",
			Description: "S3 bucket holding the staged asset bundles",
		}
	}

	assets := make([]Asset, 0, len(b.assets))
	for _, a := range b.assets {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })

	return b.template, assets, b.deployments, nil
}

type builder struct {
	graph       *topology.Graph
	template    *Template
	tags        map[string]string
	assets      map[string]Asset
	deployments []Deployment
	// methods collects the method logical IDs of each api so the api
	// deployment can depend on all of them.
	methods map[string][]string
}

func (b *builder) stage(id, source string) (Asset, error) {
	hash, err := asset.Hash(b.graph.Asset(source))
	if err != nil {
		return Asset{}, err
	}

	staged := Asset{
		ID:        id,
		Source:    source,
		Hash:      hash,
		Packaging: "zip",
		File:      "asset." + hash + ".zip",
	}
	b.assets[id] = staged
	return staged, nil
}

func (b *builder) tagList() []map[string]string {
	if len(b.tags) == 0 {
		return nil
	}

	keys := make([]string, 0, len(b.tags))
	for k := range b.tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tags := make([]map[string]string, 0, len(keys))
	for _, k := range keys {
		tags = append(tags, map[string]string{"Key": k, "Value": b.tags[k]})
	}
	return tags
}

func (b *builder) withTags(props map[string]any) map[string]any {
	if tags := b.tagList(); tags != nil {
		props["Tags"] = tags
	}
	return props
}

func (b *builder) computeUnit(unit topology.ComputeUnit) error {
	code, err := b.stage(unit.Name, unit.CodeBundle)
	if err != nil {
		return err
	}

	role := unit.Name + "ServiceRole"
	err = b.template.add(role, Resource{
		Type: "AWS::IAM::Role",
		Properties: b.withTags(map[string]any{
			"AssumeRolePolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []map[string]any{{
					"Action":    "sts:AssumeRole",
					"Effect":    "Allow",
					"Principal": map[string]any{"Service": "lambda.amazonaws.com"},
				}},
			},
			"ManagedPolicyArns": []any{
				Join("", "arn:", Partition, ":iam::aws:policy/"+basicExecutionPolicy),
			},
		}),
	})
	if err != nil {
		return err
	}

	dependsOn := []string{role}
	if len(unit.Permissions) > 0 {
		policy := role + "DefaultPolicy"
		dependsOn = []string{policy, role}

		statements := make([]map[string]any, 0, len(unit.Permissions))
		for _, p := range unit.Permissions {
			statements = append(statements, map[string]any{
				"Action":   collapse(p.Actions),
				"Effect":   "Allow",
				"Resource": collapse(p.Resources),
			})
		}

		err = b.template.add(policy, Resource{
			Type: "AWS::IAM::Policy",
			Properties: map[string]any{
				"PolicyDocument": map[string]any{
					"Version":   "2012-10-17",
					"Statement": statements,
				},
				"PolicyName": policy,
				"Roles":      []any{Ref(role)},
			},
		})
		if err != nil {
			return err
		}
	}

	return b.template.add(unit.Name, Resource{
		Type: "AWS::Lambda::Function",
		Properties: b.withTags(map[string]any{
			"Code": map[string]any{
				"S3Bucket": Ref(AssetBucketParameter),
				"S3Key":    code.File,
			},
			"Handler": unit.EntryPoint,
			"Role":    GetAtt(role, "Arn"),
			"Runtime": unit.Runtime,
		}),
		DependsOn: dependsOn,
	})
}

func (b *builder) api(api topology.ApiFrontDoor) error {
	err := b.template.add(api.Name, Resource{
		Type: "AWS::ApiGateway::RestApi",
		Properties: b.withTags(map[string]any{
			"Name": api.Name,
		}),
	})
	if err != nil {
		return err
	}

	b.template.Outputs[api.Name+"Endpoint"] = Output{
		Description: fmt.Sprintf("Invoke URL of %s", api.Name),
		Value: Join("",
			"https://", Ref(api.Name), ".execute-api.", Region, ".", URLSuffix, "/"+StageName+"/",
		),
	}
	return nil
}

// resource returns a reference to the API Gateway resource for path,
// declaring one AWS::ApiGateway::Resource per path segment on first use.
func (b *builder) resource(api, path string) any {
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return GetAtt(api, "RootResourceId")
	}

	parent := GetAtt(api, "RootResourceId")
	prefix := ""
	for _, segment := range segments {
		prefix += "/" + segment
		id := topology.ApiRoute{Api: api, Path: prefix}.ID() + "Resource"
		if _, exists := b.template.Resources[id]; !exists {
			b.template.Resources[id] = Resource{
				Type: "AWS::ApiGateway::Resource",
				Properties: map[string]any{
					"ParentId":  parent,
					"PathPart":  segment,
					"RestApiId": Ref(api),
				},
			}
		}
		parent = Ref(id)
	}
	return parent
}

func (b *builder) route(route topology.ApiRoute) error {
	err := b.template.add(route.ID(), Resource{
		Type: "AWS::ApiGateway::Method",
		Properties: map[string]any{
			"AuthorizationType": "NONE",
			"HttpMethod":        route.Method,
			"ResourceId":        b.resource(route.Api, route.Path),
			"RestApiId":         Ref(route.Api),
			"Integration": map[string]any{
				"IntegrationHttpMethod": "POST",
				"Type":                  "AWS_PROXY",
				"Uri": Join("",
					"arn:", Partition, ":apigateway:", Region, ":lambda:path/2015-03-31/functions/",
					GetAtt(route.Target, "Arn"), "/invocations",
				),
			},
		},
	})
	if err != nil {
		return err
	}
	b.methods[route.Api] = append(b.methods[route.Api], route.ID())

	return b.template.add(route.ID()+"Permission", Resource{
		Type: "AWS::Lambda::Permission",
		Properties: map[string]any{
			"Action":       "lambda:InvokeFunction",
			"FunctionName": GetAtt(route.Target, "Arn"),
			"Principal":    "apigateway.amazonaws.com",
			"SourceArn": Join("",
				"arn:", Partition, ":execute-api:", Region, ":", AccountID, ":", Ref(route.Api),
				"/"+StageName+"/"+route.Method+route.Path,
			),
		},
	})
}

func (b *builder) apiDeployment(api topology.ApiFrontDoor) error {
	deployment := api.Name + "Deployment"
	methods := append([]string(nil), b.methods[api.Name]...)
	sort.Strings(methods)

	err := b.template.add(deployment, Resource{
		Type: "AWS::ApiGateway::Deployment",
		Properties: map[string]any{
			"Description": "Deployment of " + api.Name,
			"RestApiId":   Ref(api.Name),
		},
		DependsOn: methods,
	})
	if err != nil {
		return err
	}

	return b.template.add(deployment+"Stage"+StageName, Resource{
		Type: "AWS::ApiGateway::Stage",
		Properties: map[string]any{
			"DeploymentId": Ref(deployment),
			"RestApiId":    Ref(api.Name),
			"StageName":    StageName,
		},
	})
}

func (b *builder) bucket(bucket topology.StorageBucket) error {
	props := map[string]any{}
	if bucket.DefaultDocument != "" {
		props["WebsiteConfiguration"] = map[string]any{
			"IndexDocument": bucket.DefaultDocument,
		}
	}
	if bucket.PublicRead {
		props["PublicAccessBlockConfiguration"] = map[string]any{
			"BlockPublicAcls":       false,
			"BlockPublicPolicy":     false,
			"IgnorePublicAcls":      false,
			"RestrictPublicBuckets": false,
		}
	}

	err := b.template.add(bucket.Name, Resource{
		Type:       "AWS::S3::Bucket",
		Properties: b.withTags(props),
	})
	if err != nil {
		return err
	}

	if bucket.DefaultDocument != "" {
		b.template.Outputs[bucket.Name+"WebsiteURL"] = Output{
			Description: fmt.Sprintf("Website endpoint of %s", bucket.Name),
			Value:       GetAtt(bucket.Name, "WebsiteURL"),
		}
	}

	if !bucket.PublicRead {
		return nil
	}

	return b.template.add(bucket.Name+"Policy", Resource{
		Type: "AWS::S3::BucketPolicy",
		Properties: map[string]any{
			"Bucket": Ref(bucket.Name),
			"PolicyDocument": map[string]any{
				"Version": "2012-10-17",
				"Statement": []map[string]any{{
					"Action":    "s3:GetObject",
					"Effect":    "Allow",
					"Principal": map[string]any{"AWS": "*"},
					"Resource":  Join("", GetAtt(bucket.Name, "Arn"), "/*"),
				}},
			},
		},
	})
}

func (b *builder) deployment(step topology.DeploymentStep) error {
	source, err := b.stage(step.Name, step.Source)
	if err != nil {
		return err
	}

	b.deployments = append(b.deployments, Deployment{
		ID:          step.Name,
		Asset:       source.Hash,
		Destination: step.Destination,
	})
	return nil
}

// collapse renders a single-element list as a scalar, as IAM documents do.
func collapse(values []string) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}
