package artifacts

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jobflow/internal/config"
)

func TestFSStore(t *testing.T) {
	root := t.TempDir()
	store := NewFSStore(root)

	require.NoError(t, store.Write(context.Background(), "results/jane/results.json", []byte("{}"), ContentTypeJSON))

	data, err := os.ReadFile(filepath.Join(root, "results", "jane", "results.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
	assert.Equal(t, filepath.Join(root, "summary.csv"), store.Location("summary.csv"))
}

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreWrite(t *testing.T) {
	fake := &fakeS3{}
	store := &S3Store{client: fake, bucket: "jobs", prefix: "runs/2026"}

	require.NoError(t, store.Write(context.Background(), "/summary.csv", []byte("a,b\n"), ContentTypeCSV))
	require.Len(t, fake.inputs, 1)
	assert.Equal(t, "jobs", aws.ToString(fake.inputs[0].Bucket))
	assert.Equal(t, "runs/2026/summary.csv", aws.ToString(fake.inputs[0].Key))
	assert.Equal(t, ContentTypeCSV, aws.ToString(fake.inputs[0].ContentType))
	assert.EqualValues(t, 4, aws.ToInt64(fake.inputs[0].ContentLength))
	assert.Equal(t, "a,b\n", fake.bodies[0])
	assert.Equal(t, "s3://jobs/runs/2026/errors.json", store.Location("errors.json"))

	fake.err = errors.New("denied")
	assert.ErrorContains(t, store.Write(context.Background(), "x", nil, ContentTypeJSON), "denied")
}

func TestNewS3Store(t *testing.T) {
	store, err := NewS3Store(context.Background(), S3Config{
		Endpoint:  "https://minio.local:9000/some/path",
		Bucket:    "jobs",
		AccessKey: "key",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "s3://jobs/a.json", store.Location("a.json"))
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "minio.local:9000", normalizeEndpoint("http://minio.local:9000/"))
	assert.Equal(t, "s3.amazonaws.com", normalizeEndpoint("s3.amazonaws.com"))
}

func TestFromConfig(t *testing.T) {
	store, err := FromConfig(context.Background(), config.Storage{Type: "fs"}, "out")
	require.NoError(t, err)
	assert.IsType(t, &FSStore{}, store)

	_, err = FromConfig(context.Background(), config.Storage{Type: "s3"}, "out")
	assert.Error(t, err)

	_, err = FromConfig(context.Background(), config.Storage{Type: "ftp"}, "out")
	assert.Error(t, err)

	t.Setenv("JOBFLOW_S3_SECRET_KEY", "secret")
	store, err = FromConfig(context.Background(), config.Storage{Type: "s3", S3: &config.S3{
		Endpoint: "minio.local:9000", Bucket: "jobs", Prefix: "/batch/", AccessKey: "key",
	}}, "out")
	require.NoError(t, err)
	assert.Equal(t, "s3://jobs/batch/out/summary.csv", store.Location("summary.csv"))
}

func TestEncoders(t *testing.T) {
	data, err := EncodeJSON(map[string]string{"url": "https://a?b=1&c=2"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"url\": \"https://a?b=1&c=2\"\n}\n", string(data))

	data, err = EncodeCSV([]string{"a", "b"}, [][]string{{"1", "x,y"}})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\"x,y\"\n", string(data))
}
