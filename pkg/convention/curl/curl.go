package curl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/linecard/hellocdk/pkg/convention/config"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type HttpClient interface {
	Do(request *http.Request) (*http.Response, error)
}

type Service struct {
	Http HttpClient
}

type Convention struct {
	Config  config.Config
	Service Service
}

type Response struct {
	Status int
	Body   []byte
}

func FromServices(c config.Config, h HttpClient) Convention {
	return Convention{
		Config: c,
		Service: Service{
			Http: h,
		},
	}
}

// Call sends data to path under endpoint. Non-2xx responses are returned, not
// treated as errors.
func (c Convention) Call(ctx context.Context, method, endpoint, path string, data []byte) (Response, error) {
	ctx, span := otel.Tracer("").Start(ctx, "curl.Call")
	defer span.End()

	url := strings.TrimSuffix(endpoint, "/") + "/" + strings.TrimPrefix(path, "/")
	span.SetAttributes(attribute.String("method", method), attribute.String("url", url))

	request, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}

	if len(data) > 0 {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("User-Agent", fmt.Sprintf("hellocdk/%s", c.Config.Stack))

	response, err := c.Service.Http.Do(request)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}

	log.Info().Str("url", url).Int("status", response.StatusCode).Msg("called api")

	return Response{
		Status: response.StatusCode,
		Body:   body,
	}, nil
}
