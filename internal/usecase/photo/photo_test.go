package photo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"image-compressor/internal/domain"
	repoPhoto "image-compressor/internal/repository/photo"
)

type fakeRepo struct {
	photos   map[string]*domain.Photo
	current  *domain.Photo
	variants map[string][]domain.PhotoVariant

	saveErr      error
	markDelErr   error
	replacedIDs  []string
	deletedIDs   []string
	savedPhotos  []*domain.Photo
	variantsGone []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		photos:   make(map[string]*domain.Photo),
		variants: make(map[string][]domain.PhotoVariant),
	}
}

func (f *fakeRepo) Save(_ context.Context, p *domain.Photo) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.photos[p.ID] = p
	f.savedPhotos = append(f.savedPhotos, p)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*domain.Photo, error) {
	p, ok := f.photos[id]
	if !ok || p.Status == domain.StatusDeleted {
		return nil, repoPhoto.ErrPhotoNotFound
	}
	return p, nil
}

func (f *fakeRepo) GetCurrentByOwner(_ context.Context, _ string) (*domain.Photo, error) {
	if f.current == nil {
		return nil, repoPhoto.ErrPhotoNotFound
	}
	return f.current, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id string, status domain.PhotoStatus) error {
	p, ok := f.photos[id]
	if !ok {
		return repoPhoto.ErrPhotoNotFound
	}
	p.Status = status
	return nil
}

func (f *fakeRepo) MarkReplaced(_ context.Context, id string) error {
	f.replacedIDs = append(f.replacedIDs, id)
	return nil
}

func (f *fakeRepo) MarkDeleted(ctx context.Context, id string) error {
	if f.markDelErr != nil {
		return f.markDelErr
	}
	f.deletedIDs = append(f.deletedIDs, id)
	return f.UpdateStatus(ctx, id, domain.StatusDeleted)
}

func (f *fakeRepo) GetVariants(_ context.Context, photoID string) ([]domain.PhotoVariant, error) {
	return f.variants[photoID], nil
}

func (f *fakeRepo) GetVariantByPreset(_ context.Context, photoID, preset string) (*domain.PhotoVariant, error) {
	for _, v := range f.variants[photoID] {
		if v.Preset == preset {
			return &v, nil
		}
	}
	return nil, repoPhoto.ErrVariantNotFound
}

func (f *fakeRepo) DeleteVariants(_ context.Context, photoID string) error {
	f.variantsGone = append(f.variantsGone, photoID)
	delete(f.variants, photoID)
	return nil
}

type fakeFileRepo struct {
	objects map[string][]byte
	types   map[string]string

	saveErr      error
	deleteErrFor string
	deleted      []string
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (f *fakeFileRepo) SaveObject(_ context.Context, path, contentType string, data []byte) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.objects[path] = data
	f.types[path] = contentType
	return nil
}

func (f *fakeFileRepo) GetObject(_ context.Context, path string) ([]byte, error) {
	data, ok := f.objects[path]
	if !ok {
		return nil, repoPhoto.ErrFileNotFound
	}
	return data, nil
}

func (f *fakeFileRepo) DeleteObject(_ context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	if f.deleteErrFor == path {
		return repoPhoto.ErrStorageError
	}
	delete(f.objects, path)
	return nil
}

func (f *fakeFileRepo) DeleteObjectsWithPrefix(_ context.Context, prefix string) error {
	for path := range f.objects {
		if strings.HasPrefix(path, prefix) {
			delete(f.objects, path)
		}
	}
	return nil
}

type fakeCompressor struct {
	err    error
	result *domain.PresetResult
}

func (f *fakeCompressor) CompressWithPreset(_ context.Context, buf []byte, _ string) (*domain.PresetResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	out := buf[:len(buf)/2]
	return &domain.PresetResult{ServerResult: domain.ServerResult{
		Buffer:         out,
		Info:           domain.OutputInfo{Format: domain.FormatWebP, Width: 400, Height: 400, Size: len(out)},
		OriginalSize:   len(buf),
		CompressedSize: len(out),
	}}, nil
}

type fakeProducer struct {
	err   error
	tasks []*domain.VariantTask
}

func (f *fakeProducer) SendTask(_ context.Context, _ retry.Strategy, task *domain.VariantTask) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

type fixtures struct {
	repo       *fakeRepo
	fileRepo   *fakeFileRepo
	compressor *fakeCompressor
	producer   *fakeProducer
	uc         *PhotoUsecase
}

func newFixtures() *fixtures {
	zlog.Init()
	f := &fixtures{
		repo:       newFakeRepo(),
		fileRepo:   newFakeFileRepo(),
		compressor: &fakeCompressor{},
		producer:   &fakeProducer{},
	}
	f.uc = NewPhotoUsecase(f.repo, f.fileRepo, f.compressor, f.producer, &zlog.Logger, retry.Strategy{Attempts: 1})
	return f
}

func testFile() *domain.File {
	return &domain.File{
		Name:        "portrait.jpg",
		ContentType: "image/jpeg",
		Data:        make([]byte, 4096),
	}
}

func TestUploadPhoto_CompressedPath(t *testing.T) {
	f := newFixtures()

	p, err := f.uc.UploadPhoto(context.Background(), "owner-1", "avatar", testFile())
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.True(t, p.Compressed)
	assert.Equal(t, "image/webp", p.MimeType)
	assert.Equal(t, int64(2048), p.StoredSize)
	assert.Equal(t, 50, p.CompressionRatio)
	assert.Equal(t, domain.StatusPending, p.Status)
	assert.True(t, strings.HasPrefix(p.Path, "users/owner-1/profile_"))
	assert.True(t, strings.HasSuffix(p.Path, ".webp"))

	require.Contains(t, f.fileRepo.objects, p.Path)
	require.Len(t, f.producer.tasks, 1)
	assert.Equal(t, p.ID, f.producer.tasks[0].PhotoID)
	assert.Equal(t, []string{"thumbnail", "standard"}, f.producer.tasks[0].Presets)
}

func TestUploadPhoto_FallbackOnCompressorError(t *testing.T) {
	f := newFixtures()
	f.compressor.err = errors.New("compression exploded")

	file := testFile()
	p, err := f.uc.UploadPhoto(context.Background(), "owner-1", "avatar", file)
	require.NoError(t, err)

	assert.False(t, p.Compressed)
	assert.Equal(t, "image/jpeg", p.MimeType)
	assert.Equal(t, file.Size(), p.StoredSize)
	assert.Equal(t, 0, p.CompressionRatio)
	assert.True(t, strings.HasSuffix(p.Path, ".jpg"))
	assert.Equal(t, file.Data, f.fileRepo.objects[p.Path])
}

func TestUploadPhoto_FallbackWhenNotSmaller(t *testing.T) {
	f := newFixtures()
	big := make([]byte, 8192)
	f.compressor.result = &domain.PresetResult{ServerResult: domain.ServerResult{
		Buffer:         big,
		Info:           domain.OutputInfo{Format: domain.FormatWebP, Size: len(big)},
		CompressedSize: len(big),
	}}

	p, err := f.uc.UploadPhoto(context.Background(), "owner-1", "avatar", testFile())
	require.NoError(t, err)

	assert.False(t, p.Compressed)
	assert.Equal(t, "image/jpeg", p.MimeType)
	assert.Equal(t, int64(4096), p.StoredSize)
}

func TestUploadPhoto_RejectsNonImage(t *testing.T) {
	f := newFixtures()

	_, err := f.uc.UploadPhoto(context.Background(), "owner-1", "", &domain.File{
		Name:        "report.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF"),
	})
	assert.ErrorIs(t, err, ErrInvalidFileFormat)
}

func TestUploadPhoto_RejectsOversize(t *testing.T) {
	f := newFixtures()

	_, err := f.uc.UploadPhoto(context.Background(), "owner-1", "", &domain.File{
		Name:        "huge.jpg",
		ContentType: "image/jpeg",
		Data:        make([]byte, domain.DefaultMaxUploadSize+1),
	})
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUploadPhoto_ReplacesPrevious(t *testing.T) {
	f := newFixtures()
	f.repo.current = &domain.Photo{ID: "old-photo", OwnerID: "owner-1", Path: "users/owner-1/profile_1.jpg"}
	f.fileRepo.objects["users/owner-1/profile_1.jpg"] = []byte("old")

	p, err := f.uc.UploadPhoto(context.Background(), "owner-1", "avatar", testFile())
	require.NoError(t, err)

	assert.Contains(t, f.fileRepo.deleted, "users/owner-1/profile_1.jpg")
	assert.Equal(t, []string{"old-photo"}, f.repo.replacedIDs)
	assert.NotContains(t, f.fileRepo.deleted, p.Path)
}

func TestUploadPhoto_OldDeleteFailureIsNotFatal(t *testing.T) {
	f := newFixtures()
	f.repo.current = &domain.Photo{ID: "old-photo", OwnerID: "owner-1", Path: "users/owner-1/profile_1.jpg"}
	f.fileRepo.deleteErrFor = "users/owner-1/profile_1.jpg"

	p, err := f.uc.UploadPhoto(context.Background(), "owner-1", "avatar", testFile())
	require.NoError(t, err)
	assert.Contains(t, f.fileRepo.objects, p.Path)
}

func TestUploadPhoto_DBFailureCleansUpObject(t *testing.T) {
	f := newFixtures()
	f.repo.saveErr = errors.New("db down")

	_, err := f.uc.UploadPhoto(context.Background(), "owner-1", "avatar", testFile())
	require.Error(t, err)

	for path := range f.fileRepo.objects {
		assert.False(t, strings.HasPrefix(path, "users/owner-1/profile_"), "object %s left behind", path)
	}
}

func TestUploadPhoto_ProducerFailureIsNotFatal(t *testing.T) {
	f := newFixtures()
	f.producer.err = errors.New("kafka down")

	p, err := f.uc.UploadPhoto(context.Background(), "owner-1", "avatar", testFile())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, p.Status)
}

func TestGetPhoto_Variant(t *testing.T) {
	f := newFixtures()
	f.repo.photos["p1"] = &domain.Photo{ID: "p1", Path: "users/o/profile_1.webp", MimeType: "image/webp"}
	f.repo.variants["p1"] = []domain.PhotoVariant{
		{PhotoID: "p1", Preset: "thumbnail", Path: "variants/p1/thumbnail.webp", MimeType: "image/webp"},
	}
	f.fileRepo.objects["variants/p1/thumbnail.webp"] = []byte("thumb")

	_, data, contentType, err := f.uc.GetPhoto(context.Background(), "p1", "thumbnail")
	require.NoError(t, err)
	assert.Equal(t, []byte("thumb"), data)
	assert.Equal(t, "image/webp", contentType)

	_, _, _, err = f.uc.GetPhoto(context.Background(), "p1", "avatar")
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestGetPhoto_NotFound(t *testing.T) {
	f := newFixtures()

	_, _, _, err := f.uc.GetPhoto(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestDeletePhoto(t *testing.T) {
	f := newFixtures()
	f.repo.photos["p1"] = &domain.Photo{ID: "p1", Path: "users/o/profile_1.webp"}
	f.fileRepo.objects["users/o/profile_1.webp"] = []byte("photo")
	f.fileRepo.objects["variants/p1/thumbnail.webp"] = []byte("thumb")

	require.NoError(t, f.uc.DeletePhoto(context.Background(), "p1"))

	assert.NotContains(t, f.fileRepo.objects, "users/o/profile_1.webp")
	assert.NotContains(t, f.fileRepo.objects, "variants/p1/thumbnail.webp")
	assert.Equal(t, []string{"p1"}, f.repo.variantsGone)
	assert.Equal(t, []string{"p1"}, f.repo.deletedIDs)

	_, _, _, err := f.uc.GetPhoto(context.Background(), "p1", "")
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestDeletePhoto_RecordUpdateMustSucceed(t *testing.T) {
	f := newFixtures()
	f.repo.photos["p1"] = &domain.Photo{ID: "p1", Path: "users/o/profile_1.webp"}
	f.repo.markDelErr = errors.New("db down")

	err := f.uc.DeletePhoto(context.Background(), "p1")
	assert.Error(t, err)
}
