package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/sundownlabs/teardown/providers"
	"github.com/sundownlabs/teardown/types"
)

// s3Primitive deletes buckets. A bucket cannot go while it holds objects,
// so ClearBlocking drains every version and delete marker first.
type s3Primitive struct {
	p *Provider
}

func (d *s3Primitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	_, err := d.p.clientsFor(r).s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.ID),
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (d *s3Primitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	client := d.p.clientsFor(r).s3
	bucket := aws.String(r.ID)

	paginator := s3.NewListObjectVersionsPaginator(client, &s3.ListObjectVersionsInput{
		Bucket: bucket,
	})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return classify(err)
		}

		var objects []s3types.ObjectIdentifier
		for _, version := range output.Versions {
			objects = append(objects, s3types.ObjectIdentifier{
				Key:       version.Key,
				VersionId: version.VersionId,
			})
		}
		for _, marker := range output.DeleteMarkers {
			objects = append(objects, s3types.ObjectIdentifier{
				Key:       marker.Key,
				VersionId: marker.VersionId,
			})
		}
		if len(objects) == 0 {
			continue
		}

		_, err = client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: bucket,
			Delete: &s3types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return classify(err)
		}
	}

	return nil
}

func (d *s3Primitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).s3.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(r.ID),
	})
	return classify(err)
}

// ebsVolumePrimitive deletes volumes, force-detaching in-use ones first.
type ebsVolumePrimitive struct {
	p *Provider
}

func (d *ebsVolumePrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).ec2.DescribeVolumes(ctx, &ec2.DescribeVolumesInput{
		VolumeIds: []string{r.ID},
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(output.Volumes) > 0, nil
}

func (d *ebsVolumePrimitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).ec2.DetachVolume(ctx, &ec2.DetachVolumeInput{
		VolumeId: aws.String(r.ID),
		Force:    aws.Bool(true),
	})
	err = classify(err)
	if providers.IsNotFound(err) {
		return nil
	}
	// Already-detached volumes report an incorrect-state conflict.
	if term, ok := providers.AsTerminal(err); ok && term.Kind == providers.KindConflict {
		return nil
	}
	return err
}

func (d *ebsVolumePrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).ec2.DeleteVolume(ctx, &ec2.DeleteVolumeInput{
		VolumeId: aws.String(r.ID),
	})
	return classify(err)
}

// ebsSnapshotPrimitive deletes snapshots. Nothing blocks a snapshot delete
// except an AMI reference, which classification reports as a conflict.
type ebsSnapshotPrimitive struct {
	p *Provider
}

func (d *ebsSnapshotPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).ec2.DescribeSnapshots(ctx, &ec2.DescribeSnapshotsInput{
		SnapshotIds: []string{r.ID},
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(output.Snapshots) > 0, nil
}

func (d *ebsSnapshotPrimitive) ClearBlocking(_ context.Context, _ types.ResourceRecord) error {
	return nil
}

func (d *ebsSnapshotPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).ec2.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{
		SnapshotId: aws.String(r.ID),
	})
	return classify(err)
}
