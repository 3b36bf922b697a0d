package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"

	"github.com/sundownlabs/teardown/providers"
	"github.com/sundownlabs/teardown/types"
)

type loadBalancerPrimitive struct {
	p *Provider
}

func (d *loadBalancerPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).elbv2.DescribeLoadBalancers(ctx, &elasticloadbalancingv2.DescribeLoadBalancersInput{
		LoadBalancerArns: []string{r.ID},
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(output.LoadBalancers) > 0, nil
}

func (d *loadBalancerPrimitive) ClearBlocking(_ context.Context, _ types.ResourceRecord) error {
	return nil
}

func (d *loadBalancerPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).elbv2.DeleteLoadBalancer(ctx, &elasticloadbalancingv2.DeleteLoadBalancerInput{
		LoadBalancerArn: aws.String(r.ID),
	})
	return classify(err)
}

type natGatewayPrimitive struct {
	p *Provider
}

func (d *natGatewayPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).ec2.DescribeNatGateways(ctx, &ec2.DescribeNatGatewaysInput{
		NatGatewayIds: []string{r.ID},
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	for _, gateway := range output.NatGateways {
		if gateway.State != ec2types.NatGatewayStateDeleted {
			return true, nil
		}
	}
	return false, nil
}

func (d *natGatewayPrimitive) ClearBlocking(_ context.Context, _ types.ResourceRecord) error {
	return nil
}

func (d *natGatewayPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).ec2.DeleteNatGateway(ctx, &ec2.DeleteNatGatewayInput{
		NatGatewayId: aws.String(r.ID),
	})
	return classify(err)
}

// internetGatewayPrimitive detaches the gateway from its VPC before
// deleting it; an attached gateway cannot be deleted.
type internetGatewayPrimitive struct {
	p *Provider
}

func (d *internetGatewayPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).ec2.DescribeInternetGateways(ctx, &ec2.DescribeInternetGatewaysInput{
		InternetGatewayIds: []string{r.ID},
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(output.InternetGateways) > 0, nil
}

func (d *internetGatewayPrimitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	client := d.p.clientsFor(r).ec2

	output, err := client.DescribeInternetGateways(ctx, &ec2.DescribeInternetGatewaysInput{
		InternetGatewayIds: []string{r.ID},
	})
	if err != nil {
		return classify(err)
	}

	for _, gateway := range output.InternetGateways {
		for _, attachment := range gateway.Attachments {
			_, err := client.DetachInternetGateway(ctx, &ec2.DetachInternetGatewayInput{
				InternetGatewayId: aws.String(r.ID),
				VpcId:             attachment.VpcId,
			})
			if err = classify(err); err != nil && !providers.IsNotFound(err) {
				return err
			}
		}
	}
	return nil
}

func (d *internetGatewayPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).ec2.DeleteInternetGateway(ctx, &ec2.DeleteInternetGatewayInput{
		InternetGatewayId: aws.String(r.ID),
	})
	return classify(err)
}

type securityGroupPrimitive struct {
	p *Provider
}

func (d *securityGroupPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).ec2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		GroupIds: []string{r.ID},
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(output.SecurityGroups) > 0, nil
}

func (d *securityGroupPrimitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	client := d.p.clientsFor(r).ec2

	// Cross-references between groups block deletion; drop this group's
	// rules so siblings in the same phase can go too.
	output, err := client.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		GroupIds: []string{r.ID},
	})
	if err != nil {
		return classify(err)
	}

	for _, group := range output.SecurityGroups {
		if len(group.IpPermissions) > 0 {
			_, err := client.RevokeSecurityGroupIngress(ctx, &ec2.RevokeSecurityGroupIngressInput{
				GroupId:       aws.String(r.ID),
				IpPermissions: group.IpPermissions,
			})
			if err = classify(err); err != nil && !providers.IsNotFound(err) {
				return err
			}
		}
		if len(group.IpPermissionsEgress) > 0 {
			_, err := client.RevokeSecurityGroupEgress(ctx, &ec2.RevokeSecurityGroupEgressInput{
				GroupId:       aws.String(r.ID),
				IpPermissions: group.IpPermissionsEgress,
			})
			if err = classify(err); err != nil && !providers.IsNotFound(err) {
				return err
			}
		}
	}
	return nil
}

func (d *securityGroupPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	if r.Name == "default" {
		// Undeletable; it disappears with its VPC.
		return providers.ErrNotFound
	}
	_, err := d.p.clientsFor(r).ec2.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{
		GroupId: aws.String(r.ID),
	})
	return classify(err)
}

// vpcPrimitive deletes VPCs last. Subnets go in ClearBlocking; anything
// else still inside surfaces as a dependency conflict for the next run.
type vpcPrimitive struct {
	p *Provider
}

func (d *vpcPrimitive) Exists(ctx context.Context, r types.ResourceRecord) (bool, error) {
	output, err := d.p.clientsFor(r).ec2.DescribeVpcs(ctx, &ec2.DescribeVpcsInput{
		VpcIds: []string{r.ID},
	})
	if err != nil {
		err = classify(err)
		if providers.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return len(output.Vpcs) > 0, nil
}

func (d *vpcPrimitive) ClearBlocking(ctx context.Context, r types.ResourceRecord) error {
	client := d.p.clientsFor(r).ec2

	paginator := ec2.NewDescribeSubnetsPaginator(client, &ec2.DescribeSubnetsInput{
		Filters: []ec2types.Filter{
			{Name: aws.String("vpc-id"), Values: []string{r.ID}},
		},
	})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return classify(err)
		}
		for _, subnet := range output.Subnets {
			_, err := client.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{
				SubnetId: subnet.SubnetId,
			})
			if err = classify(err); err != nil && !providers.IsNotFound(err) {
				return err
			}
		}
	}
	return nil
}

func (d *vpcPrimitive) Delete(ctx context.Context, r types.ResourceRecord) error {
	_, err := d.p.clientsFor(r).ec2.DeleteVpc(ctx, &ec2.DeleteVpcInput{
		VpcId: aws.String(r.ID),
	})
	return classify(err)
}
