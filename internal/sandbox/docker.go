package sandbox

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"

	"vibecode/internal/models"
)

const containerPrefix = "vibecode-sandbox-"

var previewPortKey = nat.Port(fmt.Sprintf("%d/tcp", PreviewPort))

// DockerProvisioner creates sandboxes as local Docker containers. The
// preview port is published to an ephemeral loopback host port; the preview
// link carries a per-sandbox token the proxy forwards back.
type DockerProvisioner struct {
	cli   *client.Client
	image string
}

func NewDockerProvisioner(img string) (*DockerProvisioner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker client: %w", err)
	}
	return &DockerProvisioner{cli: cli, image: img}, nil
}

func (p *DockerProvisioner) Create(ctx context.Context) (Sandbox, error) {
	if err := p.cleanupOrphaned(ctx); err != nil {
		log.Printf("DockerSandbox: Warning - orphan cleanup failed: %v", err)
	}

	name := fmt.Sprintf("%s%d", containerPrefix, time.Now().UnixNano())

	cfg := &container.Config{
		Image:        p.image,
		Cmd:          []string{"sleep", "infinity"},
		ExposedPorts: nat.PortSet{previewPortKey: struct{}{}},
	}
	hostCfg := &container.HostConfig{
		PortBindings: nat.PortMap{
			previewPortKey: []nat.PortBinding{{HostIP: "127.0.0.1", HostPort: "0"}},
		},
	}

	resp, err := p.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
	if err != nil {
		if !client.IsErrNotFound(err) {
			return nil, fmt.Errorf("create container: %w", err)
		}
		if err := p.pullImage(ctx); err != nil {
			return nil, err
		}
		resp, err = p.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
		if err != nil {
			return nil, fmt.Errorf("create container: %w", err)
		}
	}

	if err := p.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	inspect, err := p.cli.ContainerInspect(ctx, resp.ID)
	if err != nil {
		return nil, fmt.Errorf("inspect container: %w", err)
	}
	bindings := inspect.NetworkSettings.Ports[previewPortKey]
	if len(bindings) == 0 {
		return nil, fmt.Errorf("container %s has no binding for port %d", name, PreviewPort)
	}

	token := make([]byte, 16)
	if _, err := rand.Read(token); err != nil {
		return nil, fmt.Errorf("preview token: %w", err)
	}

	sb := &DockerSandbox{
		cli:      p.cli,
		id:       resp.ID,
		name:     name,
		hostPort: bindings[0].HostPort,
		token:    hex.EncodeToString(token),
	}

	if _, err := sb.Exec(ctx, fmt.Sprintf("mkdir -p %s", WorkspaceDir)); err != nil {
		sb.Destroy(ctx)
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	log.Printf("DockerSandbox: Started container %s (%s), preview port %d -> 127.0.0.1:%s",
		name, resp.ID[:12], PreviewPort, sb.hostPort)
	return sb, nil
}

func (p *DockerProvisioner) pullImage(ctx context.Context) error {
	log.Printf("DockerSandbox: Pulling image %s", p.image)
	rc, err := p.cli.ImagePull(ctx, p.image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", p.image, err)
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("pull image %s: %w", p.image, err)
	}
	return nil
}

// cleanupOrphaned removes exited containers left behind by earlier runs.
// Running containers with the prefix belong to live sessions and are kept.
func (p *DockerProvisioner) cleanupOrphaned(ctx context.Context) error {
	list, err := p.cli.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("name", containerPrefix),
			filters.Arg("status", "exited"),
		),
	})
	if err != nil {
		return err
	}
	for _, c := range list {
		if err := p.cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			log.Printf("DockerSandbox: Warning - failed to remove orphan %s: %v", c.ID[:12], err)
		} else {
			log.Printf("DockerSandbox: Removed orphaned container %s", c.ID[:12])
		}
	}
	return nil
}

// DockerSandbox is one running sandbox container.
type DockerSandbox struct {
	cli      *client.Client
	id       string
	name     string
	hostPort string
	token    string

	mu        sync.Mutex
	destroyed bool
}

func (s *DockerSandbox) ID() string {
	return s.name
}

func (s *DockerSandbox) UploadFile(ctx context.Context, dst string, content []byte) error {
	if dir := path.Dir(dst); dir != "/" && dir != "." {
		if _, err := s.Exec(ctx, fmt.Sprintf("mkdir -p %s", dir)); err != nil {
			return fmt.Errorf("create parent dir: %w", err)
		}
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	hdr := &tar.Header{
		Name: strings.TrimPrefix(dst, "/"),
		Mode: 0o644,
		Size: int64(len(content)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("tar header: %w", err)
	}
	if _, err := tw.Write(content); err != nil {
		return fmt.Errorf("tar write: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("tar close: %w", err)
	}

	if err := s.cli.CopyToContainer(ctx, s.id, "/", &buf, container.CopyToContainerOptions{}); err != nil {
		return fmt.Errorf("copy to container: %w", err)
	}
	return nil
}

func (s *DockerSandbox) DownloadFile(ctx context.Context, src string) ([]byte, error) {
	rc, _, err := s.cli.CopyFromContainer(ctx, s.id, src)
	if err != nil {
		return nil, fmt.Errorf("copy from container: %w", err)
	}
	defer rc.Close()

	tr := tar.NewReader(rc)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read tar entry: %w", err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("no file in archive for %s", src)
}

func (s *DockerSandbox) Exec(ctx context.Context, command string) (*models.ExecResult, error) {
	execResp, err := s.cli.ContainerExecCreate(ctx, s.id, container.ExecOptions{
		Cmd:          []string{"sh", "-c", command},
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("exec create: %w", err)
	}

	attach, err := s.cli.ContainerExecAttach(ctx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, fmt.Errorf("exec attach: %w", err)
	}
	defer attach.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader); err != nil {
		return nil, fmt.Errorf("exec read: %w", err)
	}

	inspect, err := s.cli.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return nil, fmt.Errorf("exec inspect: %w", err)
	}

	return &models.ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: inspect.ExitCode,
	}, nil
}

func (s *DockerSandbox) PreviewLink(_ context.Context, port int) (*models.PreviewDescriptor, error) {
	if port != PreviewPort {
		return nil, fmt.Errorf("port %d is not published for this sandbox", port)
	}
	return &models.PreviewDescriptor{
		URL:   fmt.Sprintf("http://127.0.0.1:%s", s.hostPort),
		Token: s.token,
	}, nil
}

func (s *DockerSandbox) Destroy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil
	}
	s.destroyed = true

	if err := s.cli.ContainerRemove(ctx, s.id, container.RemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("remove container %s: %w", s.name, err)
	}
	log.Printf("DockerSandbox: Removed container %s", s.name)
	return nil
}
