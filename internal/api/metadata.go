package api

import (
	"context"

	"github.com/valyala/fasthttp"
)

func (gw *Gateway) ClientVersion(ctx context.Context) (string, error) {
	resp, err := doRequest[VersionResponse](ctx, gw, gw.remote, call{
		op:     "client version",
		family: familyMetadata,
		method: fasthttp.MethodGet,
		url:    gw.endpoints.Metadata + "/v1/version",
	})
	if err != nil {
		return "", err
	}
	return resp.Data.RiotClientVersion, nil
}

func (gw *Gateway) AgentCatalogue(ctx context.Context) ([]AgentEntry, error) {
	resp, err := doRequest[AgentsResponse](ctx, gw, gw.remote, call{
		op:     "agent catalogue",
		family: familyMetadata,
		method: fasthttp.MethodGet,
		url:    gw.endpoints.Metadata + "/v1/agents?isPlayableCharacter=true",
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}
