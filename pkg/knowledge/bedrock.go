package knowledge

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
)

// BedrockAPI is the subset of the agent runtime client used for retrieval.
type BedrockAPI interface {
	Retrieve(ctx context.Context, params *bedrockagentruntime.RetrieveInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveOutput, error)
}

// BedrockKnowledgeBase retrieves passages from Bedrock knowledge bases.
type BedrockKnowledgeBase struct {
	client BedrockAPI
}

// NewBedrockKnowledgeBase wraps a Bedrock agent runtime client.
func NewBedrockKnowledgeBase(client BedrockAPI) *BedrockKnowledgeBase {
	return &BedrockKnowledgeBase{client: client}
}

// Retrieve runs a vector search and returns the raw passage texts.
func (b *BedrockKnowledgeBase) Retrieve(ctx context.Context, knowledgeBaseID, query string, topK int) ([]string, error) {
	out, err := b.client.Retrieve(ctx, &bedrockagentruntime.RetrieveInput{
		KnowledgeBaseId: aws.String(knowledgeBaseID),
		RetrievalQuery: &types.KnowledgeBaseQuery{
			Text: aws.String(query),
		},
		RetrievalConfiguration: &types.KnowledgeBaseRetrievalConfiguration{
			VectorSearchConfiguration: &types.KnowledgeBaseVectorSearchConfiguration{
				NumberOfResults: aws.Int32(int32(topK)),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock retrieve: %w", err)
	}

	passages := make([]string, 0, len(out.RetrievalResults))
	for _, result := range out.RetrievalResults {
		if result.Content == nil || result.Content.Text == nil {
			continue
		}
		passages = append(passages, *result.Content.Text)
	}
	return passages, nil
}
