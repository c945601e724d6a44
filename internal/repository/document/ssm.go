package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ssmAPI is the subset of the SSM client used by SSMStore.
type ssmAPI interface {
	ListDocuments(ctx context.Context, in *ssm.ListDocumentsInput, optFns ...func(*ssm.Options)) (*ssm.ListDocumentsOutput, error)
	CreateDocument(ctx context.Context, in *ssm.CreateDocumentInput, optFns ...func(*ssm.Options)) (*ssm.CreateDocumentOutput, error)
	ListDocumentVersions(
		ctx context.Context,
		in *ssm.ListDocumentVersionsInput,
		optFns ...func(*ssm.Options),
	) (*ssm.ListDocumentVersionsOutput, error)
	UpdateDocument(ctx context.Context, in *ssm.UpdateDocumentInput, optFns ...func(*ssm.Options)) (*ssm.UpdateDocumentOutput, error)
	UpdateDocumentDefaultVersion(
		ctx context.Context,
		in *ssm.UpdateDocumentDefaultVersionInput,
		optFns ...func(*ssm.Options),
	) (*ssm.UpdateDocumentDefaultVersionOutput, error)
}

// SSMStore implements Store with AWS Systems Manager.
type SSMStore struct {
	api ssmAPI
}

// errNoDescription is returned when a create or update response carries no document description.
var errNoDescription = errors.New("response has no document description")

// NewSSMStore creates a store using the provided AWS configuration.
func NewSSMStore(cfg aws.Config) *SSMStore {
	return &SSMStore{api: ssm.NewFromConfig(cfg)}
}

// FindPackages lists documents owned by the caller, of type Package, with the given name.
func (s *SSMStore) FindPackages(ctx context.Context, name string) ([]Document, error) {
	input := &ssm.ListDocumentsInput{
		Filters: []types.DocumentKeyValuesFilter{
			{Key: aws.String("Owner"), Values: []string{"Self"}},
			{Key: aws.String("DocumentType"), Values: []string{string(types.DocumentTypePackage)}},
			{Key: aws.String("Name"), Values: []string{name}},
		},
	}

	var documents []Document

	paginator := ssm.NewListDocumentsPaginator(s.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}

		for _, identifier := range page.DocumentIdentifiers {
			documents = append(documents, Document{
				Name:            aws.ToString(identifier.Name),
				DocumentVersion: aws.ToString(identifier.DocumentVersion),
				VersionName:     aws.ToString(identifier.VersionName),
			})
		}
	}

	return documents, nil
}

// CreatePackage creates a Package document with the manifest as content.
func (s *SSMStore) CreatePackage(ctx context.Context, input *Input) (*Document, error) {
	out, err := s.api.CreateDocument(ctx, &ssm.CreateDocumentInput{
		Content:        aws.String(input.Content),
		Name:           aws.String(input.Name),
		VersionName:    aws.String(input.VersionName),
		Attachments:    attachments(input.SourceURL),
		DocumentType:   types.DocumentTypePackage,
		DocumentFormat: types.DocumentFormatJson,
	})
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if out.DocumentDescription == nil {
		return nil, fmt.Errorf("create document: %w", errNoDescription)
	}

	return fromDescription(out.DocumentDescription), nil
}

// ListVersions returns all versions of a document.
func (s *SSMStore) ListVersions(ctx context.Context, name string) ([]Version, error) {
	var versions []Version

	paginator := ssm.NewListDocumentVersionsPaginator(s.api, &ssm.ListDocumentVersionsInput{
		Name: aws.String(name),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list document versions: %w", err)
		}

		for _, info := range page.DocumentVersions {
			versions = append(versions, Version{
				DocumentVersion: aws.ToString(info.DocumentVersion),
				VersionName:     aws.ToString(info.VersionName),
				IsDefault:       info.IsDefaultVersion,
			})
		}
	}

	return versions, nil
}

// UpdatePackage creates a new document version from $LATEST.
func (s *SSMStore) UpdatePackage(ctx context.Context, input *Input) (*Document, error) {
	out, err := s.api.UpdateDocument(ctx, &ssm.UpdateDocumentInput{
		Content:         aws.String(input.Content),
		Name:            aws.String(input.Name),
		VersionName:     aws.String(input.VersionName),
		Attachments:     attachments(input.SourceURL),
		DocumentVersion: aws.String(LatestVersion),
		DocumentFormat:  types.DocumentFormatJson,
	})
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	if out.DocumentDescription == nil {
		return nil, fmt.Errorf("update document: %w", errNoDescription)
	}

	return fromDescription(out.DocumentDescription), nil
}

// SetDefaultVersion promotes the numeric document version to default.
func (s *SSMStore) SetDefaultVersion(ctx context.Context, name, documentVersion string) error {
	_, err := s.api.UpdateDocumentDefaultVersion(ctx, &ssm.UpdateDocumentDefaultVersionInput{
		Name:            aws.String(name),
		DocumentVersion: aws.String(documentVersion),
	})
	if err != nil {
		return fmt.Errorf("update document default version: %w", err)
	}

	return nil
}

func attachments(sourceURL string) []types.AttachmentsSource {
	return []types.AttachmentsSource{
		{Key: types.AttachmentsSourceKeySourceUrl, Values: []string{sourceURL}},
	}
}

func fromDescription(desc *types.DocumentDescription) *Document {
	return &Document{
		Name:            aws.ToString(desc.Name),
		DocumentVersion: aws.ToString(desc.DocumentVersion),
		VersionName:     aws.ToString(desc.VersionName),
		LatestVersion:   aws.ToString(desc.LatestVersion),
		DefaultVersion:  aws.ToString(desc.DefaultVersion),
	}
}
